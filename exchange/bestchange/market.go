// Package bestchange builds a price graph from BestChange aggregator rates.
// The aggregator publishes its whole database as a bulk download; fetching
// and reducing it to best rates per direction is a collaborator's job, so
// the market consumes already-reduced rows through RateSource.
package bestchange

import (
	"context"
	"fmt"

	"github.com/bryzgaloff/crypto-apis/market"
)

// Rate is one exchanger's best offer for a direction: Give units of the
// source currency buy Receive units of the destination currency.
type Rate struct {
	From      string
	To        string
	Exchanger string
	Give      float64
	Receive   float64
}

// RateSource supplies the best rate per currency direction.
type RateSource interface {
	BestRates(ctx context.Context) ([]Rate, error)
}

// Market implements market.Market over a RateSource.
type Market struct {
	source RateSource
}

// NewMarket builds a BestChange market over the given source.
func NewMarket(source RateSource) *Market {
	return &Market{source: source}
}

var _ market.Market = (*Market)(nil)

// FetchTicker converts the best-rate rows into a price graph: the price of
// a direction is give/receive, the amount of the source currency paid per
// destination unit received. A zero receive amount is a broken row.
func (m *Market) FetchTicker(ctx context.Context) (market.Ticker, error) {
	rates, err := m.source.BestRates(ctx)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]map[string]float64)
	for _, rate := range rates {
		if rate.Receive == 0 {
			return nil, fmt.Errorf("bestchange: zero receive amount for %s -> %s at %s",
				rate.From, rate.To, rate.Exchanger)
		}
		if raw[rate.From] == nil {
			raw[rate.From] = make(map[string]float64)
		}
		raw[rate.From][rate.To] = rate.Give / rate.Receive
	}
	return market.NewTicker(raw)
}

// Package market models a provider's price graph, open orders and balances,
// the capability interfaces providers implement, and the deferred protocol
// the derived operations are composed with.
package market

import (
	"maps"

	"github.com/bryzgaloff/crypto-apis/currency"
)

// Ticker is a directed price graph: t[from][to] holds the price of one unit
// of from, expressed in units of to. Edges are directed and not assumed
// symmetric; a zero price means "no quote available". Every source currency
// carries the reflexive self edge 1.0. Tickers are immutable by convention:
// transformations return new instances.
type Ticker map[string]currency.Vector

// NewTicker builds a ticker from a raw nested price mapping. All currency
// codes are normalized recursively first; two raw quotes collapsing onto one
// canonical pair is a payload inconsistency and fails with a
// *currency.DuplicateKeyError.
func NewTicker(raw map[string]map[string]float64) (Ticker, error) {
	normalized, err := currency.NormalizeNested(raw, nil)
	if err != nil {
		return nil, err
	}
	ticker := make(Ticker, len(normalized))
	for from, row := range normalized {
		ticker[from] = currency.Vector(row)
	}
	ticker.addSelfPrices()
	return ticker, nil
}

func (t Ticker) addSelfPrices() {
	for from := range t {
		t[from][from] = 1.0
	}
}

// Prices returns the outgoing price edges of the given currency as a vector:
// what one unit of it costs in every known destination. An unknown currency
// yields an empty vector, not an error.
func (t Ticker) Prices(code string) currency.Vector {
	row := t[currency.NormalizedKey(code)]
	prices := make(currency.Vector, len(row))
	maps.Copy(prices, row)
	return prices
}

// Inverted returns the transposed graph: for every edge t[a][b] = p the
// result holds [b][a] = 1/p. A zero price inverts to zero; avoiding the
// division fault here is policy, not an oversight.
func (t Ticker) Inverted() Ticker {
	inverted := Ticker(currency.Transpose(map[string]currency.Vector(t), invertPrice))
	inverted.addSelfPrices()
	return inverted
}

func invertPrice(price float64) float64 {
	if price == 0 {
		return 0
	}
	return 1 / price
}

// IncreasedByFee returns a copy with every non-self edge multiplied by
// (1 + fee), where fee is the fractional fee rate (0.002 means 0.2%). Self
// edges stay at 1.0: holding a currency in itself costs nothing.
func (t Ticker) IncreasedByFee(fee float64) Ticker {
	multiplier := 1 + fee
	result := make(Ticker, len(t))
	for from, row := range t {
		scaled := make(currency.Vector, len(row))
		for to, price := range row {
			if to == from {
				scaled[to] = price
			} else {
				scaled[to] = price * multiplier
			}
		}
		result[from] = scaled
	}
	return result
}

// Projected returns a copy restricted to the given currencies, both as
// sources and as destinations. Currencies outside the set are dropped
// entirely, self edges included.
func (t Ticker) Projected(codes ...string) Ticker {
	accepted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		accepted[currency.NormalizedKey(code)] = struct{}{}
	}
	result := make(Ticker, len(accepted))
	for from, row := range t {
		if _, ok := accepted[from]; !ok {
			continue
		}
		projected := make(currency.Vector, len(row))
		for to, price := range row {
			if _, ok := accepted[to]; ok {
				projected[to] = price
			}
		}
		result[from] = projected
	}
	return result
}

// Currencies returns every currency present as a source.
func (t Ticker) Currencies() []string {
	codes := make([]string, 0, len(t))
	for from := range t {
		codes = append(codes, from)
	}
	return codes
}

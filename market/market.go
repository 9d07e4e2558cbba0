package market

import (
	"context"

	"github.com/bryzgaloff/crypto-apis/currency"
)

// Market is the minimal provider capability: producing a normalized price
// graph. Implementations own their wire formats and authentication; the core
// only ever sees the normalized result.
type Market interface {
	FetchTicker(ctx context.Context) (Ticker, error)
}

// Exchange extends Market with account-level capabilities.
type Exchange interface {
	Market
	FetchBalances(ctx context.Context) (Balances, error)
	FetchOpenOrders(ctx context.Context) (Orders, error)
}

// Balances is the free/locked/total tri-partition most exchanges report. The
// split is a provider convention the core carries without enforcing it.
type Balances struct {
	Free   currency.Vector
	Locked currency.Vector
	Total  currency.Vector
}

// The derived operations below share one calling contract: the precomputed
// input (ticker or open orders) is an optional explicit argument. When it is
// supplied the operation computes synchronously and returns a ready result;
// when it is nil the operation returns a pending result that first fetches
// the input from the provider and then re-invokes the same operation with it.
// Callers holding a freshly fetched ticker reuse it across several derived
// computations in one round; simpler callers pass nil and let the chain
// fetch.

// BuyPrices returns what one unit of the given currency costs, per known
// destination currency: the ticker row for it.
func BuyPrices(m Market, code string, ticker Ticker) Result[currency.Vector] {
	if ticker != nil {
		return Ready(ticker.Prices(code))
	}
	return Pending(func(ctx context.Context) (currency.Vector, error) {
		fetched, err := m.FetchTicker(ctx)
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			fetched = Ticker{}
		}
		return BuyPrices(m, code, fetched).Resolve(ctx)
	})
}

// SellPrices returns what one unit of each known currency is worth in the
// given currency: the row of the inverted ticker.
func SellPrices(m Market, code string, ticker Ticker) Result[currency.Vector] {
	if ticker != nil {
		return Ready(ticker.Inverted().Prices(code))
	}
	return Pending(func(ctx context.Context) (currency.Vector, error) {
		fetched, err := m.FetchTicker(ctx)
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			fetched = Ticker{}
		}
		return SellPrices(m, code, fetched).Resolve(ctx)
	})
}

// BuyCost values the balance at the buy prices of the given currency.
func BuyCost(m Market, balance currency.Vector, code string, ticker Ticker) Result[currency.Vector] {
	if ticker != nil {
		prices, _ := BuyPrices(m, code, ticker).Value()
		return Ready(balance.Mul(prices))
	}
	return Pending(func(ctx context.Context) (currency.Vector, error) {
		fetched, err := m.FetchTicker(ctx)
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			fetched = Ticker{}
		}
		return BuyCost(m, balance, code, fetched).Resolve(ctx)
	})
}

// SellCost values the balance at the sell prices of the given currency.
func SellCost(m Market, balance currency.Vector, code string, ticker Ticker) Result[currency.Vector] {
	if ticker != nil {
		prices, _ := SellPrices(m, code, ticker).Value()
		return Ready(balance.Mul(prices))
	}
	return Pending(func(ctx context.Context) (currency.Vector, error) {
		fetched, err := m.FetchTicker(ctx)
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			fetched = Ticker{}
		}
		return SellCost(m, balance, code, fetched).Resolve(ctx)
	})
}

// OpenBuyOrders returns the open orders acquiring the given currency, keyed
// by the currency offered in exchange: the inverted order view for it.
func OpenBuyOrders(e Exchange, code string, open Orders) Result[map[string][]Order] {
	if open != nil {
		view := open.Inverted()[currency.NormalizedKey(code)]
		if view == nil {
			view = map[string][]Order{}
		}
		return Ready(view)
	}
	return Pending(func(ctx context.Context) (map[string][]Order, error) {
		fetched, err := e.FetchOpenOrders(ctx)
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			fetched = Orders{}
		}
		return OpenBuyOrders(e, code, fetched).Resolve(ctx)
	})
}

// OpenSellOrders returns the open orders spending the given currency, keyed
// by the currency acquired.
func OpenSellOrders(e Exchange, code string, open Orders) Result[map[string][]Order] {
	if open != nil {
		view := open[currency.NormalizedKey(code)]
		if view == nil {
			view = map[string][]Order{}
		}
		return Ready(view)
	}
	return Pending(func(ctx context.Context) (map[string][]Order, error) {
		fetched, err := e.FetchOpenOrders(ctx)
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			fetched = Orders{}
		}
		return OpenSellOrders(e, code, fetched).Resolve(ctx)
	})
}

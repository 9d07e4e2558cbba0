// Package binance adapts the Binance REST and websocket APIs onto the
// market capability interfaces.
package binance

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryzgaloff/crypto-apis/currency"
	"github.com/bryzgaloff/crypto-apis/internal/transport"
	"github.com/bryzgaloff/crypto-apis/market"
)

const apiBaseURL = "https://api.binance.com/api"

// Client implements market.Exchange over the Binance API. Public endpoints
// work without credentials; balance and open-order queries require an API
// key and secret.
type Client struct {
	api    *transport.Client
	signer *transport.Signer
	apiKey string
}

// NewClient builds a Binance client. Key and secret may be empty for
// ticker-only use.
func NewClient(apiKey, apiSecret string) *Client {
	return NewClientWithTransport(transport.NewClient("binance", apiBaseURL), apiKey, apiSecret)
}

// NewClientWithTransport builds a client around an existing transport
// (tests point it at a local server).
func NewClientWithTransport(api *transport.Client, apiKey, apiSecret string) *Client {
	return &Client{
		api:    api,
		signer: transport.NewSigner(apiSecret, sha256.New),
		apiKey: apiKey,
	}
}

var _ market.Exchange = (*Client)(nil)

// symbolsAsPairs resolves the symbol table: trading symbol -> (base, quote)
// raw currency pair. Raw payloads cannot be interpreted without it.
func (c *Client) symbolsAsPairs(ctx context.Context) (map[string][2]string, error) {
	var info exchangeInfoResponse
	if err := c.api.RequestJSON(ctx, http.MethodGet, "v1/exchangeInfo", nil, nil, &info); err != nil {
		return nil, err
	}
	pairs := make(map[string][2]string, len(info.Symbols))
	for _, symbol := range info.Symbols {
		pairs[symbol.Symbol] = [2]string{symbol.BaseAsset, symbol.QuoteAsset}
	}
	return pairs, nil
}

// FetchTicker fetches the symbol table and the 24hr ticker concurrently and
// joins them by symbol. For each pair, the bid side is recorded as the
// inverted base->quote price (zero bid stays zero) and the ask side as the
// quote->base price.
func (c *Client) FetchTicker(ctx context.Context) (market.Ticker, error) {
	var (
		pairs   map[string][2]string
		entries []tickerEntry
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		pairs, err = c.symbolsAsPairs(groupCtx)
		return err
	})
	group.Go(func() error {
		return c.api.RequestJSON(groupCtx, http.MethodGet, "v1/ticker/24hr", nil, nil, &entries)
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	raw := make(map[string]map[string]float64, len(pairs))
	for _, entry := range entries {
		pair, known := pairs[entry.Symbol]
		if !known {
			continue
		}
		from, to := pair[0], pair[1]
		bid, err := strconv.ParseFloat(entry.BidPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("binance ticker: bad bid price for %s: %w", entry.Symbol, err)
		}
		ask, err := strconv.ParseFloat(entry.AskPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("binance ticker: bad ask price for %s: %w", entry.Symbol, err)
		}
		setPrice(raw, from, to, invert(bid))
		setPrice(raw, to, from, ask)
	}
	return market.NewTicker(raw)
}

// FetchBalances returns the account's free/locked/total balances, skipping
// zero amounts and combining alias spellings additively.
func (c *Client) FetchBalances(ctx context.Context) (market.Balances, error) {
	var account accountResponse
	if err := c.signedQuery(ctx, "v3/account", nil, &account); err != nil {
		return market.Balances{}, err
	}

	free := currency.Vector{}
	locked := currency.Vector{}
	for _, balance := range account.Balances {
		freeAmount, err := strconv.ParseFloat(balance.Free, 64)
		if err != nil {
			return market.Balances{}, fmt.Errorf("binance balances: bad free amount for %s: %w", balance.Asset, err)
		}
		lockedAmount, err := strconv.ParseFloat(balance.Locked, 64)
		if err != nil {
			return market.Balances{}, fmt.Errorf("binance balances: bad locked amount for %s: %w", balance.Asset, err)
		}
		if freeAmount > 0 {
			free[balance.Asset] += freeAmount
		}
		if lockedAmount > 0 {
			locked[balance.Asset] += lockedAmount
		}
	}

	free, err := free.Normalize(currency.Sum)
	if err != nil {
		return market.Balances{}, err
	}
	locked, err = locked.Normalize(currency.Sum)
	if err != nil {
		return market.Balances{}, err
	}
	return market.Balances{
		Free:   free,
		Locked: locked,
		Total:  free.Add(locked),
	}, nil
}

// FetchOpenOrders returns the account's open orders normalized to
// source -> destination direction: a BUY of base with quote swaps the pair,
// a SELL re-expresses amount and price from the quote side.
func (c *Client) FetchOpenOrders(ctx context.Context) (market.Orders, error) {
	var (
		pairs  map[string][2]string
		orders []openOrder
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		pairs, err = c.symbolsAsPairs(groupCtx)
		return err
	})
	group.Go(func() error {
		return c.signedQuery(groupCtx, "v3/openOrders", nil, &orders)
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	raw := make(map[string]map[string][]market.Order)
	for _, order := range orders {
		pair, known := pairs[order.Symbol]
		if !known {
			return nil, fmt.Errorf("binance open orders: unknown symbol %s", order.Symbol)
		}
		price, err := strconv.ParseFloat(order.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("binance open orders: bad price for %s: %w", order.Symbol, err)
		}
		amount, err := strconv.ParseFloat(order.OrigQty, 64)
		if err != nil {
			return nil, fmt.Errorf("binance open orders: bad quantity for %s: %w", order.Symbol, err)
		}

		from, to := pair[0], pair[1]
		if order.Side == "BUY" {
			from, to = to, from
		} else {
			amount = amount * price
			price = invert(price)
		}
		if raw[from] == nil {
			raw[from] = make(map[string][]market.Order)
		}
		raw[from][to] = append(raw[from][to], market.Order{
			Amount: amount,
			Price:  price,
			ID:     strconv.FormatInt(order.OrderID, 10),
		})
	}
	return market.NewOrders(raw)
}

// signedQuery sends a signed GET request: the millisecond timestamp joins
// the params, the HMAC-SHA256 of the encoded query is appended as the
// signature, and the API key travels in the X-MBX-APIKEY header.
func (c *Client) signedQuery(ctx context.Context, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("signature", c.signer.Sign(params.Encode()))

	headers := http.Header{}
	headers.Set("X-MBX-APIKEY", c.apiKey)
	return c.api.RequestJSON(ctx, http.MethodGet, endpoint, params, headers, out)
}

func setPrice(raw map[string]map[string]float64, from, to string, price float64) {
	if raw[from] == nil {
		raw[from] = make(map[string]float64)
	}
	raw[from][to] = price
}

func invert(price float64) float64 {
	if price == 0 {
		return 0
	}
	return 1 / price
}

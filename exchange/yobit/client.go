// Package yobit adapts the Yobit API onto the market capability interfaces.
//
// Yobit has no bulk ticker endpoint: prices are fetched per explicit pair
// batch, so one valuation round touches the ticker several times. The client
// therefore merges every fetch into a caller-owned market.TickerCache and
// the cost operations accept the usual explicit-ticker argument to skip
// fetching entirely.
package yobit

import (
	"context"
	"crypto/sha512"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryzgaloff/crypto-apis/currency"
	"github.com/bryzgaloff/crypto-apis/internal/transport"
	"github.com/bryzgaloff/crypto-apis/market"
)

const apiBaseURL = "https://yobit.io"

// Pair is one currency pair to quote, in raw provider spellings.
type Pair [2]string

// Client implements market.Exchange over the Yobit API.
type Client struct {
	api    *transport.Client
	signer *transport.Signer
	apiKey string
	cache  market.TickerCache
	watch  []Pair
}

// NewClient builds a Yobit client. The cache receives every fetched price
// batch; watch lists the pairs FetchTicker and FetchOpenOrders cover.
func NewClient(apiKey, apiSecret string, cache market.TickerCache, watch ...Pair) *Client {
	return NewClientWithTransport(transport.NewClient("yobit", apiBaseURL), apiKey, apiSecret, cache, watch...)
}

// NewClientWithTransport builds a client around an existing transport
// (tests point it at a local server).
func NewClientWithTransport(api *transport.Client, apiKey, apiSecret string, cache market.TickerCache, watch ...Pair) *Client {
	return &Client{
		api:    api,
		signer: transport.NewSigner(apiSecret, sha512.New),
		apiKey: apiKey,
		cache:  cache,
		watch:  watch,
	}
}

var _ market.Exchange = (*Client)(nil)

// PairsAsSymbols resolves the pair table: canonical currency -> canonical
// currency -> trading symbol, in both directions.
func (c *Client) PairsAsSymbols(ctx context.Context) (map[string]map[string]string, error) {
	var info infoResponse
	if err := c.api.RequestJSON(ctx, http.MethodGet, "api/3/info", nil, nil, &info); err != nil {
		return nil, err
	}

	pairs := make(map[string]map[string]string, len(info.Pairs))
	for symbol := range info.Pairs {
		first, second, found := strings.Cut(symbol, "_")
		if !found {
			return nil, fmt.Errorf("yobit: malformed pair symbol %q", symbol)
		}
		first, second = strings.ToUpper(first), strings.ToUpper(second)
		if pairs[first] == nil {
			pairs[first] = make(map[string]string)
		}
		if pairs[second] == nil {
			pairs[second] = make(map[string]string)
		}
		pairs[first][second] = symbol
		pairs[second][first] = symbol
	}
	return currency.NormalizeNested(pairs, nil)
}

// FetchPrices fetches quotes for the given pairs in one batched request and
// merges them into the cached ticker, which is also returned. Pairs of one
// currency with itself and pairs Yobit does not trade are skipped.
func (c *Client) FetchPrices(ctx context.Context, pairs ...Pair) (market.Ticker, error) {
	symbols, err := c.symbolsFor(ctx, pairs)
	if err != nil {
		return nil, err
	}
	raw := c.cachedRaw(ctx)
	if len(symbols) == 0 {
		return market.NewTicker(raw)
	}

	var response map[string]tickerEntry
	endpoint := "api/3/ticker/" + strings.Join(symbols, "-")
	if err := c.api.RequestJSON(ctx, http.MethodGet, endpoint, nil, nil, &response); err != nil {
		return nil, err
	}
	for symbol, entry := range response {
		to, from, found := strings.Cut(symbol, "_")
		if !found {
			return nil, fmt.Errorf("yobit: malformed pair symbol %q in ticker", symbol)
		}
		// Insert under canonical keys so refreshed quotes overwrite the
		// cached entries instead of colliding with them.
		to, from = currency.NormalizedKey(to), currency.NormalizedKey(from)
		setPrice(raw, from, to, entry.Sell)
		setPrice(raw, to, from, invert(entry.Buy))
	}

	ticker, err := market.NewTicker(raw)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, ticker); err != nil {
			return nil, fmt.Errorf("yobit: caching ticker: %w", err)
		}
	}
	return ticker, nil
}

// FetchPricesByBalance fetches the quotes needed to value every currency of
// the balance in the target currency.
func (c *Client) FetchPricesByBalance(ctx context.Context, balance currency.Vector, target string) (market.Ticker, error) {
	pairs := make([]Pair, 0, len(balance))
	for code := range balance {
		pairs = append(pairs, Pair{target, code})
	}
	return c.FetchPrices(ctx, pairs...)
}

// FetchTicker fetches quotes for the configured watch pairs.
func (c *Client) FetchTicker(ctx context.Context) (market.Ticker, error) {
	return c.FetchPrices(ctx, c.watch...)
}

// BuyCost values the balance at the buy prices of the target currency. With
// a nil ticker the pending fetch covers only the pairs the balance needs.
func (c *Client) BuyCost(balance currency.Vector, target string, ticker market.Ticker) market.Result[currency.Vector] {
	if ticker != nil {
		return market.BuyCost(c, balance, target, ticker)
	}
	return market.Pending(func(ctx context.Context) (currency.Vector, error) {
		fetched, err := c.FetchPricesByBalance(ctx, balance, target)
		if err != nil {
			return nil, err
		}
		return market.BuyCost(c, balance, target, fetched).Resolve(ctx)
	})
}

// SellCost values the balance at the sell prices of the target currency,
// with the same pair-scoped pending fetch as BuyCost.
func (c *Client) SellCost(balance currency.Vector, target string, ticker market.Ticker) market.Result[currency.Vector] {
	if ticker != nil {
		return market.SellCost(c, balance, target, ticker)
	}
	return market.Pending(func(ctx context.Context) (currency.Vector, error) {
		fetched, err := c.FetchPricesByBalance(ctx, balance, target)
		if err != nil {
			return nil, err
		}
		return market.SellCost(c, balance, target, fetched).Resolve(ctx)
	})
}

// FetchBalances returns the account's funds: free from "funds", total from
// "funds_incl_orders", locked as the positive difference.
func (c *Client) FetchBalances(ctx context.Context) (market.Balances, error) {
	var response getInfoResponse
	if err := c.signedQuery(ctx, "getInfo", nil, &response); err != nil {
		return market.Balances{}, err
	}
	if response.Success != 1 {
		return market.Balances{}, fmt.Errorf("yobit getInfo: %s", response.Error)
	}

	free, err := parseAmounts(response.Return.Funds)
	if err != nil {
		return market.Balances{}, fmt.Errorf("yobit funds: %w", err)
	}
	total, err := parseAmounts(response.Return.FundsInclOrders)
	if err != nil {
		return market.Balances{}, fmt.Errorf("yobit funds_incl_orders: %w", err)
	}

	locked := currency.Vector{}
	for code, amount := range total {
		if diff := amount - free[code]; diff > 0 {
			locked[code] = diff
		}
	}
	return market.Balances{
		Free:   free,
		Locked: locked,
		Total:  total,
	}, nil
}

// FetchOpenOrders queries active orders for every watch pair concurrently
// and merges them, normalized to source -> destination direction.
func (c *Client) FetchOpenOrders(ctx context.Context) (market.Orders, error) {
	symbols, err := c.symbolsFor(ctx, c.watch)
	if err != nil {
		return nil, err
	}

	perSymbol := make([]map[string]map[string][]market.Order, len(symbols))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		group.Go(func() error {
			orders, err := c.fetchOpenOrdersForSymbol(groupCtx, symbol)
			if err != nil {
				return err
			}
			perSymbol[i] = orders
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	raw := make(map[string]map[string][]market.Order)
	for _, bySymbol := range perSymbol {
		for from, byTo := range bySymbol {
			if raw[from] == nil {
				raw[from] = make(map[string][]market.Order)
			}
			for to, orders := range byTo {
				raw[from][to] = append(raw[from][to], orders...)
			}
		}
	}
	return market.NewOrders(raw)
}

func (c *Client) fetchOpenOrdersForSymbol(ctx context.Context, symbol string) (map[string]map[string][]market.Order, error) {
	params := url.Values{}
	params.Set("pair", symbol)
	var response activeOrdersResponse
	if err := c.signedQuery(ctx, "ActiveOrders", params, &response); err != nil {
		return nil, err
	}
	if response.Success != 1 {
		return nil, fmt.Errorf("yobit ActiveOrders %s: %s", symbol, response.Error)
	}

	result := make(map[string]map[string][]market.Order)
	for orderID, order := range response.Return {
		from, to, found := strings.Cut(order.Pair, "_")
		if !found {
			return nil, fmt.Errorf("yobit: malformed pair symbol %q in order %s", order.Pair, orderID)
		}
		price := order.Rate
		amount := order.Amount
		if order.Type == "buy" {
			from, to = to, from
		} else {
			amount = amount * price
			price = invert(price)
		}
		if result[from] == nil {
			result[from] = make(map[string][]market.Order)
		}
		result[from][to] = append(result[from][to], market.Order{
			Amount: amount,
			Price:  price,
			ID:     orderID,
		})
	}
	return result, nil
}

// signedQuery sends a signed POST to the trade API: the method name and a
// second-resolution nonce join the form, the API key and the HMAC-SHA512 of
// the encoded form travel in the Key and Sign headers.
func (c *Client) signedQuery(ctx context.Context, method string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("method", method)
	params.Set("nonce", strconv.FormatInt(time.Now().Unix(), 10))

	headers := http.Header{}
	headers.Set("Key", c.apiKey)
	headers.Set("Sign", c.signer.Sign(params.Encode()))
	return c.api.RequestJSON(ctx, http.MethodPost, "tapi", params, headers, out)
}

// symbolsFor resolves trading symbols for the given pairs, dropping
// same-currency pairs and pairs Yobit does not trade.
func (c *Client) symbolsFor(ctx context.Context, pairs []Pair) ([]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	table, err := c.PairsAsSymbols(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(pairs))
	var symbols []string
	for _, pair := range pairs {
		first := currency.NormalizedKey(pair[0])
		second := currency.NormalizedKey(pair[1])
		if first == second {
			continue
		}
		symbol, traded := table[first][second]
		if !traded {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

// cachedRaw re-expands the cached ticker into a raw mapping new quotes can
// be merged into.
func (c *Client) cachedRaw(ctx context.Context) map[string]map[string]float64 {
	raw := make(map[string]map[string]float64)
	if c.cache == nil {
		return raw
	}
	cached, ok := c.cache.Get(ctx)
	if !ok {
		return raw
	}
	for from, row := range cached {
		raw[from] = make(map[string]float64, len(row))
		for to, price := range row {
			raw[from][to] = price
		}
	}
	return raw
}

func parseAmounts(amounts map[string]any) (currency.Vector, error) {
	vector := currency.Vector{}
	for code, value := range amounts {
		amount, err := currency.ToFloat(value)
		if err != nil {
			return nil, fmt.Errorf("amount of %s: %w", code, err)
		}
		vector[code] = amount
	}
	return vector.Normalize(currency.Sum)
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

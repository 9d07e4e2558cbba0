// Package exmo adapts the Exmo API onto the market capability interfaces.
// Exmo keys everything by pair symbols like "BTC_USD" and signs private
// queries with HMAC-SHA512.
package exmo

import (
	"context"
	"crypto/sha512"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bryzgaloff/crypto-apis/currency"
	"github.com/bryzgaloff/crypto-apis/internal/transport"
	"github.com/bryzgaloff/crypto-apis/market"
)

const apiBaseURL = "https://api.exmo.me/v1"

type tickerEntry struct {
	BuyPrice  string `json:"buy_price"`
	SellPrice string `json:"sell_price"`
}

// userInfoResponse carries the balance partition. Amounts arrive as strings.
type userInfoResponse struct {
	Balances map[string]any `json:"balances"`
	Reserved map[string]any `json:"reserved"`
}

type openOrder struct {
	Pair     string `json:"pair"`
	Type     string `json:"type"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Amount   string `json:"amount"`
	OrderID  int64  `json:"order_id"`
}

// Client implements market.Exchange over the Exmo API.
type Client struct {
	api    *transport.Client
	signer *transport.Signer
	apiKey string
}

// NewClient builds an Exmo client. Key and secret may be empty for
// ticker-only use.
func NewClient(apiKey, apiSecret string) *Client {
	return NewClientWithTransport(transport.NewClient("exmo", apiBaseURL), apiKey, apiSecret)
}

// NewClientWithTransport builds a client around an existing transport
// (tests point it at a local server).
func NewClientWithTransport(api *transport.Client, apiKey, apiSecret string) *Client {
	return &Client{
		api:    api,
		signer: transport.NewSigner(apiSecret, sha512.New),
		apiKey: apiKey,
	}
}

var _ market.Exchange = (*Client)(nil)

// FetchTicker builds the price graph from the pair-keyed ticker: the buy
// side is recorded inverted (zero-safe) as base->quote, the sell side
// directly as quote->base.
func (c *Client) FetchTicker(ctx context.Context) (market.Ticker, error) {
	var response map[string]tickerEntry
	if err := c.api.RequestJSON(ctx, http.MethodPost, "ticker", nil, nil, &response); err != nil {
		return nil, err
	}

	raw := make(map[string]map[string]float64, len(response))
	for pair, prices := range response {
		from, to, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		buy, err := strconv.ParseFloat(prices.BuyPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("exmo ticker: bad buy price for %s: %w", pair, err)
		}
		sell, err := strconv.ParseFloat(prices.SellPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("exmo ticker: bad sell price for %s: %w", pair, err)
		}
		setPrice(raw, from, to, invert(buy))
		setPrice(raw, to, from, sell)
	}
	return market.NewTicker(raw)
}

// FetchBalances returns the user's balances: the "balances" map as free
// funds, "reserved" as locked, zero amounts filtered out.
func (c *Client) FetchBalances(ctx context.Context) (market.Balances, error) {
	var response userInfoResponse
	if err := c.signedQuery(ctx, "user_info", nil, &response); err != nil {
		return market.Balances{}, err
	}

	free, err := parsePositive(response.Balances)
	if err != nil {
		return market.Balances{}, fmt.Errorf("exmo balances: %w", err)
	}
	locked, err := parsePositive(response.Reserved)
	if err != nil {
		return market.Balances{}, fmt.Errorf("exmo reserved: %w", err)
	}
	return market.Balances{
		Free:   free,
		Locked: locked,
		Total:  free.Add(locked),
	}, nil
}

// FetchOpenOrders normalizes open orders to source -> destination direction:
// a buy order swaps the pair and keeps its base quantity, a sell order
// re-expresses price and takes the quoted amount.
func (c *Client) FetchOpenOrders(ctx context.Context) (market.Orders, error) {
	var response map[string][]openOrder
	if err := c.signedQuery(ctx, "user_open_orders", nil, &response); err != nil {
		return nil, err
	}

	raw := make(map[string]map[string][]market.Order)
	for _, orders := range response {
		for _, order := range orders {
			from, to, err := splitPair(order.Pair)
			if err != nil {
				return nil, err
			}
			price, err := strconv.ParseFloat(order.Price, 64)
			if err != nil {
				return nil, fmt.Errorf("exmo open orders: bad price for %s: %w", order.Pair, err)
			}

			var amount float64
			if order.Type == "buy" {
				from, to = to, from
				amount, err = strconv.ParseFloat(order.Quantity, 64)
			} else {
				price = invert(price)
				amount, err = strconv.ParseFloat(order.Amount, 64)
			}
			if err != nil {
				return nil, fmt.Errorf("exmo open orders: bad amount for %s: %w", order.Pair, err)
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
	}
	return market.NewOrders(raw)
}

// signedQuery sends a signed POST: a millisecond nonce joins the form, the
// API key and the HMAC-SHA512 of the encoded form travel in the Key and
// Sign headers.
func (c *Client) signedQuery(ctx context.Context, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("nonce", strconv.FormatInt(time.Now().UnixMilli(), 10))

	headers := http.Header{}
	headers.Set("Key", c.apiKey)
	headers.Set("Sign", c.signer.Sign(params.Encode()))
	return c.api.RequestJSON(ctx, http.MethodPost, endpoint, params, headers, out)
}

// parsePositive converts a raw amount map into a normalized vector, keeping
// only positive amounts.
func parsePositive(amounts map[string]any) (currency.Vector, error) {
	vector := currency.Vector{}
	for code, value := range amounts {
		amount, err := currency.ToFloat(value)
		if err != nil {
			return nil, fmt.Errorf("amount of %s: %w", code, err)
		}
		if amount > 0 {
			vector[code] = amount
		}
	}
	return vector.Normalize(currency.Sum)
}

func splitPair(pair string) (string, string, error) {
	from, to, found := strings.Cut(pair, "_")
	if !found {
		return "", "", fmt.Errorf("exmo: malformed pair symbol %q", pair)
	}
	return from, to, nil
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

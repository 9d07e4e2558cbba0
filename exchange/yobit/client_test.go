package yobit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryzgaloff/crypto-apis/currency"
	"github.com/bryzgaloff/crypto-apis/internal/transport"
	"github.com/bryzgaloff/crypto-apis/market"
)

func newTestClient(t *testing.T, handler http.Handler, cache market.TickerCache, watch ...Pair) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithTransport(
		transport.NewClient("yobit", server.URL),
		"test-key", "test-secret", cache, watch...,
	)
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

// publicHandler serves the pair table and the batched ticker, recording the
// requested symbol batches.
func publicHandler(t *testing.T, tickerCalls *[]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/3/info":
			writeJSON(t, w, map[string]any{
				"pairs": map[string]any{
					"btc_usdt": map[string]any{},
					"eth_usdt": map[string]any{},
				},
			})
		case strings.HasPrefix(r.URL.Path, "/api/3/ticker/"):
			batch := strings.TrimPrefix(r.URL.Path, "/api/3/ticker/")
			if tickerCalls != nil {
				*tickerCalls = append(*tickerCalls, batch)
			}
			response := map[string]any{}
			for _, symbol := range strings.Split(batch, "-") {
				switch symbol {
				case "btc_usdt":
					response[symbol] = map[string]any{"buy": 8990.0, "sell": 9000.0}
				case "eth_usdt":
					response[symbol] = map[string]any{"buy": 268.0, "sell": 270.0}
				}
			}
			writeJSON(t, w, response)
		default:
			http.NotFound(w, r)
		}
	})
}

func TestClient_FetchPrices(t *testing.T) {
	var tickerCalls []string
	cache := market.NewMemoryTickerCache(time.Minute)
	client := newTestClient(t, publicHandler(t, &tickerCalls), cache)

	ticker, err := client.FetchPrices(context.Background(), Pair{"BTC", "USDT"})
	require.NoError(t, err)

	require.Equal(t, []string{"btc_usdt"}, tickerCalls)
	assert.Equal(t, 9000.0, ticker["USDT"]["BTC"])
	assert.InDelta(t, 1.0/8990, ticker["BTC"]["USDT"], 1e-12)

	// the batch went to the cache
	cached, ok := cache.Get(context.Background())
	require.True(t, ok)
	assert.Equal(t, ticker, cached)
}

func TestClient_FetchPrices_MergesIntoCachedTicker(t *testing.T) {
	cache := market.NewMemoryTickerCache(time.Minute)
	client := newTestClient(t, publicHandler(t, nil), cache)

	_, err := client.FetchPrices(context.Background(), Pair{"BTC", "USDT"})
	require.NoError(t, err)

	ticker, err := client.FetchPrices(context.Background(), Pair{"ETH", "USDT"})
	require.NoError(t, err)

	// quotes of the first batch survive the second
	assert.Equal(t, 9000.0, ticker["USDT"]["BTC"])
	assert.Equal(t, 270.0, ticker["USDT"]["ETH"])

	// refetching an already-cached pair overwrites its quotes
	ticker, err = client.FetchPrices(context.Background(), Pair{"BTC", "USDT"})
	require.NoError(t, err)
	assert.Equal(t, 9000.0, ticker["USDT"]["BTC"])
	assert.Equal(t, 270.0, ticker["USDT"]["ETH"])
}

func TestClient_FetchPrices_SkipsUntradedAndSelfPairs(t *testing.T) {
	var tickerCalls []string
	client := newTestClient(t, publicHandler(t, &tickerCalls), nil)

	ticker, err := client.FetchPrices(context.Background(),
		Pair{"BTC", "BTC"},
		Pair{"DOGE", "XEM"},
	)
	require.NoError(t, err)

	assert.Empty(t, tickerCalls)
	assert.Empty(t, ticker)
}

func TestClient_FetchPrices_BatchesSymbols(t *testing.T) {
	var tickerCalls []string
	client := newTestClient(t, publicHandler(t, &tickerCalls), nil)

	_, err := client.FetchPrices(context.Background(),
		Pair{"BTC", "USDT"},
		Pair{"USDT", "BTC"}, // same symbol, deduplicated
		Pair{"ETH", "USDT"},
	)
	require.NoError(t, err)

	require.Len(t, tickerCalls, 1)
	assert.ElementsMatch(t,
		[]string{"btc_usdt", "eth_usdt"},
		strings.Split(tickerCalls[0], "-"))
}

func TestClient_FetchTicker_UsesWatchedPairs(t *testing.T) {
	var tickerCalls []string
	client := newTestClient(t, publicHandler(t, &tickerCalls), nil, Pair{"BTC", "USDT"})

	ticker, err := client.FetchTicker(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"btc_usdt"}, tickerCalls)
	assert.Equal(t, 9000.0, ticker["USDT"]["BTC"])
}

func TestClient_SellCost_PendingFetchesOnlyNeededPairs(t *testing.T) {
	var tickerCalls []string
	client := newTestClient(t, publicHandler(t, &tickerCalls), nil, Pair{"BTC", "USDT"}, Pair{"ETH", "USDT"})
	balance := currency.Vector{"BTC": 2}

	result := client.SellCost(balance, "USDT", nil)
	require.False(t, result.IsReady())
	assert.Empty(t, tickerCalls)

	worth, err := result.Resolve(context.Background())
	require.NoError(t, err)

	// only the btc_usdt quote was needed, not the whole watch list
	require.Equal(t, []string{"btc_usdt"}, tickerCalls)
	// selling into USDT values BTC at the inverted buy side
	assert.InDelta(t, 2*8990, worth["BTC"], 1e-9)
}

func TestClient_FetchBalances(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tapi", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "getInfo", r.PostForm.Get("method"))
		require.NotEmpty(t, r.PostForm.Get("nonce"))
		require.Equal(t, "test-key", r.Header.Get("Key"))
		require.NotEmpty(t, r.Header.Get("Sign"))
		writeJSON(t, w, map[string]any{
			"success": 1,
			"return": map[string]any{
				"funds":             map[string]any{"btc": 1.5, "rur": 100.0},
				"funds_incl_orders": map[string]any{"btc": 2.0, "rur": 100.0},
			},
		})
	}), nil)

	balances, err := client.FetchBalances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, currency.Vector{"BTC": 1.5, "RUB": 100}, balances.Free)
	assert.Equal(t, currency.Vector{"BTC": 0.5}, balances.Locked)
	assert.Equal(t, currency.Vector{"BTC": 2, "RUB": 100}, balances.Total)
}

func TestClient_FetchBalances_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"success": 0, "error": "invalid key"})
	}), nil)

	_, err := client.FetchBalances(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestClient_FetchOpenOrders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/3/info" {
			writeJSON(t, w, map[string]any{
				"pairs": map[string]any{"btc_usdt": map[string]any{}},
			})
			return
		}
		require.Equal(t, "/tapi", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "ActiveOrders", r.PostForm.Get("method"))
		require.Equal(t, "btc_usdt", r.PostForm.Get("pair"))
		writeJSON(t, w, map[string]any{
			"success": 1,
			"return": map[string]any{
				"101": map[string]any{"pair": "btc_usdt", "type": "sell", "amount": 2.0, "rate": 9000.0},
				"102": map[string]any{"pair": "btc_usdt", "type": "buy", "amount": 1.0, "rate": 8500.0},
			},
		})
	}), nil, Pair{"BTC", "USDT"})

	orders, err := client.FetchOpenOrders(context.Background())
	require.NoError(t, err)

	require.Len(t, orders["BTC"]["USDT"], 1)
	sell := orders["BTC"]["USDT"][0]
	assert.Equal(t, 18000.0, sell.Amount)
	assert.InDelta(t, 1.0/9000, sell.Price, 1e-12)
	assert.Equal(t, "101", sell.ID)

	require.Len(t, orders["USDT"]["BTC"], 1)
	buy := orders["USDT"]["BTC"][0]
	assert.Equal(t, 1.0, buy.Amount)
	assert.Equal(t, 8500.0, buy.Price)
	assert.Equal(t, "102", buy.ID)
}

package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryzgaloff/crypto-apis/currency"
	"github.com/bryzgaloff/crypto-apis/internal/transport"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithTransport(
		transport.NewClient("binance", server.URL),
		"test-key", "test-secret",
	)
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func exchangeInfoPayload() map[string]any {
	return map[string]any{
		"symbols": []map[string]any{
			{"symbol": "BTCUSDT", "baseAsset": "BTC", "quoteAsset": "USDT"},
			{"symbol": "ETHBTC", "baseAsset": "ETH", "quoteAsset": "BTC"},
		},
	}
}

func TestClient_FetchTicker(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/exchangeInfo":
			writeJSON(t, w, exchangeInfoPayload())
		case "/v1/ticker/24hr":
			writeJSON(t, w, []map[string]any{
				{"symbol": "BTCUSDT", "bidPrice": "9000", "askPrice": "9010"},
				{"symbol": "UNKNOWN", "bidPrice": "1", "askPrice": "1"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	ticker, err := client.FetchTicker(context.Background())
	require.NoError(t, err)

	// bid side inverted onto base -> quote, ask side onto quote -> base
	assert.InDelta(t, 1.0/9000, ticker["BTC"]["USDT"], 1e-12)
	assert.Equal(t, 9010.0, ticker["USDT"]["BTC"])
	assert.Equal(t, 1.0, ticker["BTC"]["BTC"])
	// unknown symbols are skipped
	_, present := ticker["UNKNOWN"]
	assert.False(t, present)
}

func TestClient_FetchTicker_ZeroBid(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/exchangeInfo":
			writeJSON(t, w, exchangeInfoPayload())
		case "/v1/ticker/24hr":
			writeJSON(t, w, []map[string]any{
				{"symbol": "BTCUSDT", "bidPrice": "0.00000000", "askPrice": "9010"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	ticker, err := client.FetchTicker(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.0, ticker["BTC"]["USDT"])
}

func TestClient_FetchBalances(t *testing.T) {
	var gotQuery map[string][]string
	var gotAPIKey string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/account", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAPIKey = r.Header.Get("X-MBX-APIKEY")
		writeJSON(t, w, map[string]any{
			"balances": []map[string]any{
				{"asset": "BTC", "free": "1.5", "locked": "0.5"},
				{"asset": "RUR", "free": "100", "locked": "0"},
				{"asset": "RUB", "free": "50", "locked": "0"},
				{"asset": "ETH", "free": "0", "locked": "0"},
			},
		})
	}))

	balances, err := client.FetchBalances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAPIKey)
	assert.NotEmpty(t, gotQuery["timestamp"])
	assert.NotEmpty(t, gotQuery["signature"])

	assert.Equal(t, currency.Vector{"BTC": 1.5, "RUB": 150}, balances.Free)
	assert.Equal(t, currency.Vector{"BTC": 0.5}, balances.Locked)
	assert.Equal(t, currency.Vector{"BTC": 2, "RUB": 150}, balances.Total)
	// zero balances are dropped
	_, present := balances.Free["ETH"]
	assert.False(t, present)
}

func TestClient_FetchOpenOrders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/exchangeInfo":
			writeJSON(t, w, exchangeInfoPayload())
		case "/v3/openOrders":
			writeJSON(t, w, []map[string]any{
				{"symbol": "BTCUSDT", "orderId": 1, "price": "9000", "origQty": "2", "side": "SELL"},
				{"symbol": "BTCUSDT", "orderId": 2, "price": "8500", "origQty": "1", "side": "BUY"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	orders, err := client.FetchOpenOrders(context.Background())
	require.NoError(t, err)

	// SELL: re-expressed from the quote side
	require.Len(t, orders["BTC"]["USDT"], 1)
	sell := orders["BTC"]["USDT"][0]
	assert.Equal(t, 18000.0, sell.Amount)
	assert.InDelta(t, 1.0/9000, sell.Price, 1e-12)
	assert.Equal(t, "1", sell.ID)

	// BUY: the pair is swapped, values kept
	require.Len(t, orders["USDT"]["BTC"], 1)
	buy := orders["USDT"]["BTC"][0]
	assert.Equal(t, 1.0, buy.Amount)
	assert.Equal(t, 8500.0, buy.Price)
	assert.Equal(t, "2", buy.ID)
}

func TestClient_FetchOpenOrders_UnknownSymbol(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/exchangeInfo":
			writeJSON(t, w, exchangeInfoPayload())
		case "/v3/openOrders":
			writeJSON(t, w, []map[string]any{
				{"symbol": "NOPE", "orderId": 1, "price": "1", "origQty": "1", "side": "BUY"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	_, err := client.FetchOpenOrders(context.Background())
	assert.Error(t, err)
}

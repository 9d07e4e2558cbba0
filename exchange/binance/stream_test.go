package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryzgaloff/crypto-apis/internal/transport"
	"github.com/bryzgaloff/crypto-apis/market"
)

var streamUpgrader = websocket.Upgrader{}

// newTestStream serves the symbol table over HTTP and book ticker events
// over a websocket endpoint on the same server.
func newTestStream(t *testing.T, cache market.TickerCache, events []map[string]any) *Stream {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/exchangeInfo":
			writeJSON(t, w, exchangeInfoPayload())
		case "/ws":
			conn, err := streamUpgrader.Upgrade(w, r, nil)
			require.NoError(t, err)
			defer func() {
				_ = conn.Close()
			}()
			for _, event := range events {
				require.NoError(t, conn.WriteJSON(event))
			}
			// keep the connection open until the client closes it
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client := NewClientWithTransport(transport.NewClient("binance", server.URL), "", "")
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return NewStreamWithURL(client, cache, wsURL)
}

func TestStream_Run_FlushesTickerToCache(t *testing.T) {
	cache := market.NewMemoryTickerCache(time.Minute)
	stream := newTestStream(t, cache, []map[string]any{
		{"s": "BTCUSDT", "b": "9000", "a": "9010"},
		{"s": "UNKNOWN", "b": "1", "a": "1"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- stream.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background())
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	ticker, ok := cache.Get(context.Background())
	require.True(t, ok)
	assert.InDelta(t, 1.0/9000, ticker["BTC"]["USDT"], 1e-12)
	assert.Equal(t, 9010.0, ticker["USDT"]["BTC"])
	// unknown symbols never enter the graph
	_, present := ticker["UNKNOWN"]
	assert.False(t, present)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop on context cancellation")
	}
}

func TestStream_Run_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/exchangeInfo" {
			writeJSON(t, w, exchangeInfoPayload())
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClientWithTransport(transport.NewClient("binance", server.URL), "", "")
	stream := NewStreamWithURL(client, market.NewMemoryTickerCache(time.Minute), "ws://127.0.0.1:1/ws")

	err := stream.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

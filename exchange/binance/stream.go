package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bryzgaloff/crypto-apis/internal/logging"
	"github.com/bryzgaloff/crypto-apis/market"
)

const (
	streamURL     = "wss://stream.binance.com:9443/ws/!bookTicker"
	flushInterval = time.Second
)

// Stream maintains a live price graph from the book ticker stream, flushing
// refreshed tickers into a caller-owned cache. Reads through the cache then
// see near-real-time prices without any REST round trip.
type Stream struct {
	client *Client
	cache  market.TickerCache
	url    string
}

// NewStream builds a stream feeding the given cache.
func NewStream(client *Client, cache market.TickerCache) *Stream {
	return &Stream{
		client: client,
		cache:  cache,
		url:    streamURL,
	}
}

// NewStreamWithURL builds a stream against a custom websocket URL (tests).
func NewStreamWithURL(client *Client, cache market.TickerCache, url string) *Stream {
	return &Stream{
		client: client,
		cache:  cache,
		url:    url,
	}
}

// Run resolves the symbol table, connects, and applies book ticker events
// until the context is cancelled or the connection drops. The caller owns
// reconnection policy.
func (s *Stream) Run(ctx context.Context) error {
	pairs, err := s.client.symbolsAsPairs(ctx)
	if err != nil {
		return fmt.Errorf("binance stream: resolving symbols: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("binance stream: dial: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// Unblocks the blocking read when the context is cancelled.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log := logging.FromContext(ctx, "binance-stream")
	log.WithField("url", s.url).Info("book ticker stream connected")

	raw := make(map[string]map[string]float64)
	var lastFlush time.Time
	for {
		var event bookTickerEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("binance stream: read: %w", err)
		}
		pair, known := pairs[event.Symbol]
		if !known {
			continue
		}

		bid, err := strconv.ParseFloat(event.Bid, 64)
		if err != nil {
			return fmt.Errorf("binance stream: bad bid for %s: %w", event.Symbol, err)
		}
		ask, err := strconv.ParseFloat(event.Ask, 64)
		if err != nil {
			return fmt.Errorf("binance stream: bad ask for %s: %w", event.Symbol, err)
		}
		from, to := pair[0], pair[1]
		setPrice(raw, from, to, invert(bid))
		setPrice(raw, to, from, ask)

		if time.Since(lastFlush) < flushInterval {
			continue
		}
		ticker, err := market.NewTicker(raw)
		if err != nil {
			return fmt.Errorf("binance stream: %w", err)
		}
		if err := s.cache.Put(ctx, ticker); err != nil {
			log.WithError(err).Warn("ticker cache put failed")
		}
		lastFlush = time.Now()
	}
}

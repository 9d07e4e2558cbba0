package market

import (
	"context"
	"sync"
	"time"

	"github.com/bryzgaloff/crypto-apis/internal/metrics"
)

// TickerCache is a caller-owned cache for the most recently fetched ticker
// of one provider. It exists so that several derived computations in one
// burst can share a single fetch; it is constructed and passed in
// explicitly, never looked up from ambient state.
//
// Known hazard: the cache is shared mutable state. Concurrent refreshers may
// race and overwrite each other's entry; the backends keep that race benign
// (one whole ticker replaces another) but do not prevent it. Prefer
// request-scoped tickers wherever correctness matters more than call-count
// savings.
type TickerCache interface {
	// Get returns the cached ticker, or ok == false when the cache is
	// empty or the entry has expired.
	Get(ctx context.Context) (Ticker, bool)
	// Put stores the ticker with the backend's TTL.
	Put(ctx context.Context, ticker Ticker) error
	// Invalidate drops the cached entry.
	Invalidate(ctx context.Context) error
}

// MemoryTickerCache is the in-process TickerCache backend: one entry guarded
// by a mutex with an expiry timestamp.
type MemoryTickerCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	entry     Ticker
	expiresAt time.Time
}

// NewMemoryTickerCache builds an in-memory cache whose entries live for ttl.
func NewMemoryTickerCache(ttl time.Duration) *MemoryTickerCache {
	return &MemoryTickerCache{ttl: ttl}
}

func (c *MemoryTickerCache) Get(_ context.Context) (Ticker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || time.Now().After(c.expiresAt) {
		metrics.RecordTickerCacheOperation("memory", "get", "miss")
		return nil, false
	}
	metrics.RecordTickerCacheOperation("memory", "get", "hit")
	return c.entry, true
}

func (c *MemoryTickerCache) Put(_ context.Context, ticker Ticker) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = ticker
	c.expiresAt = time.Now().Add(c.ttl)
	metrics.RecordTickerCacheOperation("memory", "put", "success")
	return nil
}

func (c *MemoryTickerCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = nil
	metrics.RecordTickerCacheOperation("memory", "invalidate", "success")
	return nil
}

// CachedMarket wraps a Market so FetchTicker serves from a caller-owned
// cache inside its TTL and refreshes it on a miss. The wrapped provider is
// only hit when the cache cannot answer.
type CachedMarket struct {
	market Market
	cache  TickerCache
}

// NewCachedMarket wraps m with the given cache.
func NewCachedMarket(m Market, cache TickerCache) *CachedMarket {
	return &CachedMarket{market: m, cache: cache}
}

func (cm *CachedMarket) FetchTicker(ctx context.Context) (Ticker, error) {
	if ticker, ok := cm.cache.Get(ctx); ok {
		return ticker, nil
	}
	ticker, err := cm.market.FetchTicker(ctx)
	if err != nil {
		return nil, err
	}
	if err := cm.cache.Put(ctx, ticker); err != nil {
		// A failed Put only costs the next caller a refetch.
		return ticker, nil
	}
	return ticker, nil
}

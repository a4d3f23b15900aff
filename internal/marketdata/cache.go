package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefixes for cached vendor responses.
// Format: md:quote:{symbol}, md:technicals:{symbol}
const (
	quoteKeyPrefix      = "md:quote"
	technicalsKeyPrefix = "md:technicals"
)

// CacheConfig controls response caching
type CacheConfig struct {
	QuoteTTL      time.Duration
	TechnicalsTTL time.Duration
}

// DefaultCacheConfig returns TTLs tuned for dashboard refresh rates
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		QuoteTTL:      15 * time.Second,
		TechnicalsTTL: 5 * time.Minute,
	}
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// CachedProvider wraps a Provider with a Redis response cache. When Redis is
// unavailable it falls back to an in-memory cache so analysis continues
// without interruption.
type CachedProvider struct {
	inner  Provider
	rdb    *redis.Client // nil when Redis is disabled
	config CacheConfig

	mu       sync.RWMutex
	fallback map[string]memoryEntry
}

// NewCachedProvider wraps a provider with quote/technicals caching. rdb may
// be nil to run purely in-memory.
func NewCachedProvider(inner Provider, rdb *redis.Client, config CacheConfig) *CachedProvider {
	return &CachedProvider{
		inner:    inner,
		rdb:      rdb,
		config:   config,
		fallback: make(map[string]memoryEntry),
	}
}

// GetQuote returns a cached quote when fresh, otherwise fetches and caches.
func (p *CachedProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	key := fmt.Sprintf("%s:%s", quoteKeyPrefix, symbol)

	var quote Quote
	if p.lookup(ctx, key, &quote) {
		return &quote, nil
	}

	fresh, err := p.inner.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, fresh, p.config.QuoteTTL)
	return fresh, nil
}

// GetTechnicals returns cached technicals when fresh, otherwise fetches.
func (p *CachedProvider) GetTechnicals(ctx context.Context, symbol string) (*Technicals, error) {
	key := fmt.Sprintf("%s:%s", technicalsKeyPrefix, symbol)

	var technicals Technicals
	if p.lookup(ctx, key, &technicals) {
		return &technicals, nil
	}

	fresh, err := p.inner.GetTechnicals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, fresh, p.config.TechnicalsTTL)
	return fresh, nil
}

// GetHistoricalBars passes through; bar ranges vary too much to cache usefully.
func (p *CachedProvider) GetHistoricalBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	return p.inner.GetHistoricalBars(ctx, symbol, days)
}

// GetNews passes through; the news sub-analysis applies its own freshness window.
func (p *CachedProvider) GetNews(ctx context.Context, symbol string, limit int) ([]Article, error) {
	return p.inner.GetNews(ctx, symbol, limit)
}

// lookup reads from Redis first and the in-memory fallback second.
func (p *CachedProvider) lookup(ctx context.Context, key string, out interface{}) bool {
	if p.rdb != nil {
		if data, err := p.rdb.Get(ctx, key).Bytes(); err == nil {
			if json.Unmarshal(data, out) == nil {
				return true
			}
		}
	}

	p.mu.RLock()
	entry, ok := p.fallback[key]
	p.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return false
	}
	return json.Unmarshal(entry.data, out) == nil
}

func (p *CachedProvider) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if p.rdb != nil {
		// Best effort: a Redis outage must not break analysis.
		_ = p.rdb.Set(ctx, key, data, ttl).Err()
	}

	p.mu.Lock()
	p.fallback[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	p.mu.Unlock()
}

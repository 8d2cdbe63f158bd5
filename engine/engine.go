package engine

import (
	"context"
	"time"

	"github.com/krisalay/asset-cache/expiration"
	"github.com/krisalay/asset-cache/types"
	"github.com/krisalay/asset-cache/warm"
	"github.com/krisalay/asset-cache/writepolicy"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When an entry is expired
- What happens after a miss
- How writes are propagated to the durable tier
- How metrics are recorded
- What "now" means (injectable for tests)

It does NOT:
- Store data
- Handle locking
- Decide eviction order
*/
type CacheEngine struct {

	// Expiration decides when an entry is too old to serve.
	// If this is nil, entries never expire.
	Expiration expiration.Strategy

	// Warm is an optional hook that runs after a miss, typically to populate
	// the key in the background. If nil, misses have no side effect.
	Warm warm.Hook

	// WritePolicy decides how a write reaches the durable tier.
	// If nil, cache writes stay only in memory.
	WritePolicy writepolicy.WritePolicy

	// Metrics keeps track of hits, misses, promotions, evictions and expiries.
	Metrics types.Metrics

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

/*
NewCacheEngine creates a CacheEngine.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	hook warm.Hook,
	writePolicy writepolicy.WritePolicy,
	metrics types.Metrics,
) *CacheEngine {

	// Ensure metrics is always non-nil
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	return &CacheEngine{
		Expiration:  exp,
		Warm:        hook,
		WritePolicy: writePolicy,
		Metrics:     metrics,
		Clock:       time.Now,
	}
}

// Now returns the engine's notion of the current time.
func (e *CacheEngine) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

/*
IsExpired checks whether a cache entry is expired.

- Delegates the decision to the configured Expiration strategy
- Returns false if no expiration strategy is configured
- Records nothing; a lookup reports expiry once through RecordExpired
*/
func (e *CacheEngine) IsExpired(ent types.CacheEntry) bool {
	return e.Expiration != nil && e.Expiration.IsExpired(ent, e.Now())
}

// RecordExpired counts one lookup that found only expired entries.
func (e *CacheEngine) RecordExpired() {
	e.Metrics.Expire()
}

// OnMiss records the miss and fires the warm hook, unless ctx suppresses it.
func (e *CacheEngine) OnMiss(ctx context.Context, key string) {
	e.Metrics.Miss()
	if e.Warm != nil && !warm.Suppressed(ctx) {
		e.Warm.OnMiss(key)
	}
}

/*
OnWrite is called after the memory tier accepted an entry.
Write propagation depends entirely on the configured WritePolicy.
*/
func (e *CacheEngine) OnWrite(ctx context.Context, ent types.CacheEntry) {
	if e.WritePolicy != nil {
		e.WritePolicy.OnWrite(ctx, ent)
	}
}

// Flush waits for pending durable writes, if the write policy defers any.
func (e *CacheEngine) Flush(ctx context.Context) {
	if e.WritePolicy != nil {
		e.WritePolicy.Flush(ctx)
	}
}

// Close stops the write policy.
func (e *CacheEngine) Close() {
	if e.WritePolicy != nil {
		e.WritePolicy.Close()
	}
}

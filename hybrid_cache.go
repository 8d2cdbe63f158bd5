package cache

import (
	"context"
	"log/slog"

	api "github.com/krisalay/asset-cache/api"
	"github.com/krisalay/asset-cache/engine"
	evict "github.com/krisalay/asset-cache/eviction"
	"github.com/krisalay/asset-cache/memory"
	"github.com/krisalay/asset-cache/types"
)

var _ api.Cache = (*HybridCache)(nil)

/*
HybridCache is the cache facade.
This struct is the orchestrator that connects:
- the memory tier (fast, bounded, process-local)
- the durable tier (persistent, cross-session, may be unavailable)
- the engine (expiry, write policy, miss hook, metrics)

It is the sole owner of both tiers. Construct one per process and pass it to
every consumer.
*/
type HybridCache struct {
	// memory is the bounded in-process tier.
	memory *memory.Tier

	// durable is the persistent tier. Nil means memory-only.
	durable types.BackingStore

	// engine contains the "rules" of the cache: TTL, write policy, miss hook, metrics.
	engine *engine.CacheEngine

	logger *slog.Logger
}

// Option configures a HybridCache.
type Option func(*HybridCache)

// WithLogger sets the logger used by the facade.
func WithLogger(logger *slog.Logger) Option {
	return func(c *HybridCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHybridCache builds the facade. durable may be nil, in which case the
// cache runs on the memory tier alone. The engine's write policy should write
// into the same durable store.
func NewHybridCache(
	capacity int,
	eviction evict.Policy,
	durable types.BackingStore,
	engine *engine.CacheEngine,
	opts ...Option,
) *HybridCache {
	c := &HybridCache{
		memory:  memory.NewTier(capacity, eviction),
		durable: durable,
		engine:  engine,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// initializer is implemented by durable stores that open lazily.
type initializer interface {
	Init(ctx context.Context) error
}

// Init opens the durable tier. A failure leaves the cache memory-only.
func (c *HybridCache) Init(ctx context.Context) {
	in, ok := c.durable.(initializer)
	if !ok {
		return
	}
	if err := in.Init(ctx); err != nil {
		c.logger.Info("asset cache running without durable tier", "error", err)
	}
}

/*
Get retrieves the encoded data for key.
*/
func (c *HybridCache) Get(ctx context.Context, key string) (string, bool) {
	ent, ok := c.Lookup(ctx, key)
	if !ok {
		return "", false
	}
	return ent.EncodedData, true
}

/*
Lookup retrieves the whole entry for key.

1. Memory tier, if live
2. Durable tier, if live, promoted into the memory tier
3. Miss

Lookup may mutate the memory tier (promotion, eviction) even though it is a read.
*/
func (c *HybridCache) Lookup(ctx context.Context, key string) (types.CacheEntry, bool) {
	if key == "" {
		return types.CacheEntry{}, false
	}

	// expired is set when either tier held the key but too old to serve.
	expired := false

	if ent, ok := c.memory.Get(key); ok {
		if !c.engine.IsExpired(ent) {
			c.engine.Metrics.Hit()
			return ent, true
		}
		expired = true
	}

	if c.durable != nil {
		if ent, ok := c.durable.Get(ctx, key); ok {
			if !c.engine.IsExpired(ent) {
				c.promote(key, ent)
				c.engine.Metrics.Hit()
				return ent, true
			}
			expired = true
		}
	}

	if expired {
		c.engine.RecordExpired()
	}
	c.engine.OnMiss(ctx, key)
	return types.CacheEntry{}, false
}

// DataURI returns the entry for key rendered as a data: URI.
func (c *HybridCache) DataURI(ctx context.Context, key string) (string, bool) {
	ent, ok := c.Lookup(ctx, key)
	if !ok {
		return "", false
	}
	return ent.DataURI(), true
}

// promote copies a durable hit into the memory tier.
func (c *HybridCache) promote(key string, ent types.CacheEntry) {
	c.engine.Metrics.Promote()
	c.storeMemory(key, ent)
}

func (c *HybridCache) storeMemory(key string, ent types.CacheEntry) {
	for _, k := range c.memory.Set(key, ent) {
		c.engine.Metrics.Eviction()
		c.logger.Debug("asset cache evicted key from memory", "key", k)
	}
}

/*
Set stores encodedData for key with a fresh timestamp.

Write-through: memory tier first, then the write policy forwards the same
entry to the durable tier. Neither write can fail the call.
*/
func (c *HybridCache) Set(ctx context.Context, key, encodedData, contentType string) {
	if key == "" {
		c.logger.Debug("asset cache ignored set with empty key")
		return
	}

	ent := types.NewCacheEntry(key, encodedData, contentType, c.engine.Now())
	c.storeMemory(key, ent)
	c.engine.OnWrite(ctx, ent)
}

// Remove drops key from both tiers.
func (c *HybridCache) Remove(ctx context.Context, key string) {
	c.memory.Delete(key)
	if c.durable != nil {
		// A queued write-back for key would otherwise resurrect it.
		c.engine.Flush(ctx)
		c.durable.Delete(ctx, key)
	}
}

// ClearMemory empties the memory tier.
func (c *HybridCache) ClearMemory() {
	c.memory.Clear()
}

// ClearDurable empties the durable tier.
func (c *HybridCache) ClearDurable(ctx context.Context) {
	if c.durable == nil {
		return
	}
	c.engine.Flush(ctx)
	c.durable.Clear(ctx)
}

// ClearAll empties both tiers.
func (c *HybridCache) ClearAll(ctx context.Context) {
	c.ClearMemory()
	c.ClearDurable(ctx)
}

// Stats describes the cache at a point in time.
type Stats struct {
	Metrics          types.MetricsSnapshot `json:"metrics"`
	MemoryEntries    int                   `json:"memory_entries"`
	MemoryCapacity   int                   `json:"memory_capacity"`
	DurableAvailable bool                  `json:"durable_available"`
}

// Stats reports counters (when the engine records them) and tier state.
func (c *HybridCache) Stats() Stats {
	s := Stats{
		MemoryEntries:  c.memory.Len(),
		MemoryCapacity: c.memory.Capacity(),
	}
	if snap, ok := c.engine.Metrics.(interface{ Snapshot() types.MetricsSnapshot }); ok {
		s.Metrics = snap.Snapshot()
	}
	if av, ok := c.durable.(interface{ Available() bool }); ok {
		s.DurableAvailable = av.Available()
	}
	return s
}

/*
Close gracefully shuts down the cache.
Pending write-back operations are flushed before the durable store is closed.
*/
func (c *HybridCache) Close() {
	c.engine.Close()
	if cl, ok := c.durable.(interface{ Close() error }); ok {
		if err := cl.Close(); err != nil {
			c.logger.Warn("asset cache durable close failed", "error", err)
		}
	}
}

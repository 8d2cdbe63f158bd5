package types

import "sync/atomic"

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a Get is answered from either tier.
	Hit()

	// Miss is called when neither tier holds a live entry for the key.
	Miss()

	// Promote is called when a durable hit is copied into the memory tier.
	Promote()

	// Eviction is called when the memory tier drops its oldest key to stay within capacity.
	Eviction()

	// Expire is called once per lookup that found the key only in entries older than the TTL.
	Expire()
}

// NoopMetrics satisfies Metrics without side effects, so the cache never needs nil checks.
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Promote()  {}
func (NoopMetrics) Eviction() {}
func (NoopMetrics) Expire()   {}

// MetricsSnapshot is a point-in-time copy of Counters.
type MetricsSnapshot struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Promotions int64 `json:"promotions"`
	Evictions  int64 `json:"evictions"`
	Expired    int64 `json:"expired"`
}

// Counters is a Metrics implementation backed by atomic counters.
type Counters struct {
	hits       atomic.Int64
	misses     atomic.Int64
	promotions atomic.Int64
	evictions  atomic.Int64
	expired    atomic.Int64
}

func (c *Counters) Hit()      { c.hits.Add(1) }
func (c *Counters) Miss()     { c.misses.Add(1) }
func (c *Counters) Promote()  { c.promotions.Add(1) }
func (c *Counters) Eviction() { c.evictions.Add(1) }
func (c *Counters) Expire()   { c.expired.Add(1) }

// Snapshot reads every counter. The counters are read independently, so a
// snapshot taken under load is approximate.
func (c *Counters) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Promotions: c.promotions.Load(),
		Evictions:  c.evictions.Load(),
		Expired:    c.expired.Load(),
	}
}

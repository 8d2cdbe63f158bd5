package memory

import (
	"sync"

	"github.com/krisalay/asset-cache/eviction"
	"github.com/krisalay/asset-cache/types"
)

// DefaultCapacity is the number of distinct keys the memory tier keeps.
const DefaultCapacity = 20

/*
Tier is the fast, ephemeral half of the hybrid cache: a bounded, process-local
map that drops its oldest key when it grows past capacity.

- Reads are lock-free snapshots of the COW store
- Writes are serialized by mu
- Contents are lost on process restart

Only the cache facade holds a Tier. A second Tier would silently fork cache state.
*/
type Tier struct {

	// store holds the actual key → entry data.
	store Store

	// eviction decides which key goes when the tier is over capacity.
	eviction eviction.Policy

	// capacity is the maximum number of distinct keys.
	capacity int

	// mu protects writes and the eviction policy's bookkeeping.
	mu sync.Mutex
}

// NewTier creates a tier bounded to capacity keys. A non-positive capacity
// falls back to DefaultCapacity; a nil policy falls back to FIFO.
func NewTier(capacity int, policy eviction.Policy) *Tier {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if policy == nil {
		policy = eviction.NewFIFO()
	}
	return &Tier{
		store:    NewCOWStore(),
		eviction: policy,
		capacity: capacity,
	}
}

// Get returns the entry for key, if present. Expiry is not evaluated here.
func (t *Tier) Get(key string) (types.CacheEntry, bool) {
	ent, ok := t.store.Get(key)
	if ok {
		t.mu.Lock()
		t.eviction.OnGet(key)
		t.mu.Unlock()
	}
	return ent, ok
}

/*
Set inserts or overwrites the entry for key.

If the number of distinct keys exceeds capacity after insertion, the policy
picks keys to drop until the tier fits again. With FIFO that is exactly the
single oldest-inserted key. The evicted keys are returned so the caller can
account for them.
*/
func (t *Tier) Set(key string, ent types.CacheEntry) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.Put(key, ent)
	t.eviction.OnPut(key)

	var evicted []string
	for t.store.Size() > int64(t.capacity) {
		k := t.eviction.Evict()
		if k == "" {
			break
		}
		t.store.Delete(k)
		evicted = append(evicted, k)
	}
	return evicted
}

// Delete removes key from the tier. Removing a missing key is a no-op.
func (t *Tier) Delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.Delete(key)
	t.eviction.Remove(key)
}

// Clear drops every entry.
func (t *Tier) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.Clear()
	t.eviction.Reset()
}

// Len returns the number of keys currently held.
func (t *Tier) Len() int {
	return int(t.store.Size())
}

// Capacity returns the configured bound.
func (t *Tier) Capacity() int {
	return t.capacity
}

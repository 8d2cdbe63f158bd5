package memory

import (
	"sync/atomic"

	"github.com/krisalay/asset-cache/types"
)

/*
This file defines how data is actually stored inside the memory tier. This is NOT a normal map.
- Reads should be very fast
- Reads should NOT require locks
- Writes are less frequent and can afford extra work

To achieve this, we use a technique called: "Copy-On-Write" (COW).
The tier is small (tens of entries), so copying the map on every write is cheap.
*/

// Store is the interface used by a Tier to store and retrieve cache entries.
type Store interface {

	// Get retrieves an entry by key.
	Get(string) (types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(string, types.CacheEntry)

	// Delete removes an entry.
	Delete(string)

	// Clear removes every entry.
	Clear()

	// Size returns how many entries are stored.
	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of Store.

- Readers always see an immutable snapshot
- Writers create a NEW copy of the map
- The new map replaces the old one atomically

Entries are stored by value, so a reader racing a writer gets either the
old entry or the new one, never a mix of both.
*/
type cowStore struct {
	data atomic.Pointer[map[string]types.CacheEntry]

	// size tracks the number of entries so Size never walks the map.
	size atomic.Int64
}

// NewCOWStore returns an empty copy-on-write store.
func NewCOWStore() Store {
	s := &cowStore{}
	s.swap(make(map[string]types.CacheEntry))
	return s
}

func (s *cowStore) load() map[string]types.CacheEntry {
	return *s.data.Load()
}

func (s *cowStore) swap(m map[string]types.CacheEntry) {
	s.data.Store(&m)
	s.size.Store(int64(len(m)))
}

func (s *cowStore) Get(key string) (types.CacheEntry, bool) {
	ent, ok := s.load()[key]
	return ent, ok
}

/*
Put inserts or updates an entry in the store. This is where copy-on-write happens.

1. Load the current map
2. Create a NEW map and copy all existing entries
3. Add the new entry
4. Atomically replace the old map
*/
func (s *cowStore) Put(key string, ent types.CacheEntry) {
	old := s.load()

	n := make(map[string]types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent

	s.swap(n)
}

// Delete removes an entry from the store. Just like Put, this uses copy-on-write.
func (s *cowStore) Delete(key string) {
	old := s.load()
	if _, ok := old[key]; !ok {
		return
	}

	n := make(map[string]types.CacheEntry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.swap(n)
}

func (s *cowStore) Clear() {
	s.swap(make(map[string]types.CacheEntry))
}

func (s *cowStore) Size() int64 {
	return s.size.Load()
}

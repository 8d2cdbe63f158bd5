package cache

import (
	"context"

	"github.com/krisalay/asset-cache/types"
)

/*
Cache defines the PUBLIC API of the hybrid asset cache.
This is the only surface consumers (renderers, data-access code) use.
All of the details like (tiers, eviction, expiry, promotion and write propagation)
are hidden behind this interface.

No method returns an error. A failure anywhere below the facade shows up as a
miss, which callers must treat as "not cached" and fall back to the remote URL.
*/
type Cache interface {

	/*
		Init prepares the durable tier.

		If the durable store cannot be opened, the cache keeps working on the
		memory tier alone for the rest of the process. Calling Init is optional:
		the durable tier opens itself lazily on first use.
	*/
	Init(ctx context.Context)

	/*
		Get returns the base64 encoded data for key.

		BEHAVIOR:
		-------------------
		1. Memory tier holds a live entry → return it
		2. Durable tier holds a live entry → copy it into the memory tier
		   (promotion, may evict) and return it
		3. Otherwise → miss ("", false)

		An entry older than the TTL is treated exactly like a missing one.
		It is ignored, not deleted.
	*/
	Get(ctx context.Context, key string) (string, bool)

	// Lookup behaves like Get but returns the whole entry, content type included.
	Lookup(ctx context.Context, key string) (types.CacheEntry, bool)

	/*
		Set stores encodedData for key in both tiers.

		The entry is stamped with the current time and fully replaces any
		previous entry for the key. Both tier writes are always attempted.
	*/
	Set(ctx context.Context, key, encodedData, contentType string)

	// Remove drops key from both tiers. Removing a missing key is safe.
	Remove(ctx context.Context, key string)

	// ClearMemory empties the memory tier.
	ClearMemory()

	// ClearDurable empties the durable tier.
	ClearDurable(ctx context.Context)

	// ClearAll empties both tiers.
	ClearAll(ctx context.Context)

	/*
		Close gracefully shuts down the cache.

		- Flushes any pending write-back operations
		- Closes the durable store
	*/
	Close()
}

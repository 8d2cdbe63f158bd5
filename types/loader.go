package types

import "context"

// Asset describes one remote asset that should end up in the cache.
type Asset struct {
	// Key is the asset identifier, in practice a download URL.
	Key string

	// ContentType is the expected MIME type. Optional: it is only used when
	// the origin does not declare one.
	ContentType string
}

// Payload is what a Loader hands back: the asset bytes already converted to
// base64 text plus the content type observed at fetch time.
type Payload struct {
	EncodedData string
	ContentType string
}

// Loader is the contract between the cache and the remote origin.
type Loader interface {

	/*
		Load is called when the cache misses and someone wants the asset anyway.
		1. Cache checks both tiers → key not found
		2. Pipeline calls Load(asset)
		3. Loader fetches the bytes from the origin and encodes them
		4. Pipeline stores the payload in the cache
	*/
	Load(ctx context.Context, asset Asset) (Payload, error)
}

/*
BackingStore is the contract between the cache facade and the durable tier.

None of these methods return an error. The durable tier is an optimization,
not the system of record, so implementations log their failures and degrade:
a failed Get is a miss, a failed Put or Clear is a no-op.
*/
type BackingStore interface {

	// Get returns the stored entry, or false if it is absent or unreadable.
	Get(ctx context.Context, key string) (CacheEntry, bool)

	// Put upserts the entry.
	Put(ctx context.Context, ent CacheEntry)

	// Delete removes a single entry.
	Delete(ctx context.Context, key string)

	// Clear removes every entry.
	Clear(ctx context.Context)
}

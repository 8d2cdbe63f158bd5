package writepolicy

import (
	"context"

	"github.com/krisalay/asset-cache/types"
)

/*
This file defines what a "write policy" is: how a write to the memory tier is
propagated to the durable tier.

- Write-through: the durable write finishes before Set returns (default)
- Write-back: the durable write is queued and applied by a background worker

Instead of hard-coding one behavior, we define an interface so we can plug in different strategies.
*/

// Mode names a write policy in configuration.
type Mode string

const (
	ModeWriteThrough Mode = "through"
	ModeWriteBack    Mode = "back"
)

/*
WritePolicy is the contract that all write policies must follow.
The cache engine does not care which policy is used. It simply calls these methods.
*/
type WritePolicy interface {

	// OnWrite is called after the memory tier accepted ent.
	OnWrite(ctx context.Context, ent types.CacheEntry)

	// Flush returns once every write accepted before the call has reached the store.
	Flush(ctx context.Context)

	// Close is called when the cache is shutting down.
	Close()
}

// New builds the policy for mode, writing into store. opts apply to the
// write-back policy only.
func New(mode Mode, store types.BackingStore, buffer int, opts ...Option) WritePolicy {
	if mode == ModeWriteBack {
		return NewWriteBackPolicy(store, buffer, opts...)
	}
	return NewWriteThroughPolicy(store)
}

package writepolicy

import (
	"context"

	"github.com/krisalay/asset-cache/types"
)

/*
WriteThroughPolicy forwards every cache write to the durable tier synchronously.

So the flow is: memory write → durable write → Set returns.
The durable tier never returns an error, so the memory write always stands
even when the durable write is lost.
*/
type WriteThroughPolicy struct {
	store types.BackingStore
}

func NewWriteThroughPolicy(store types.BackingStore) *WriteThroughPolicy {
	return &WriteThroughPolicy{store: store}
}

func (w *WriteThroughPolicy) OnWrite(ctx context.Context, ent types.CacheEntry) {
	w.store.Put(ctx, ent)
}

// Flush has nothing to wait for: every write already happened inline.
func (w *WriteThroughPolicy) Flush(context.Context) {}

func (w *WriteThroughPolicy) Close() {}

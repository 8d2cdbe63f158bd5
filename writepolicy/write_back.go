package writepolicy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/krisalay/asset-cache/types"
)

// This file implements the "write-back" policy.

// DefaultWriteBackBuffer is the queue size used when none is configured.
const DefaultWriteBackBuffer = 256

// writeReq is one pending durable write. A request with a non-nil done
// channel is a flush barrier and carries no entry.
type writeReq struct {
	ctx  context.Context
	ent  types.CacheEntry
	done chan struct{}
}

/*
WriteBackPolicy manages asynchronous writes to the durable tier.
Set returns as soon as the memory tier has the entry; a single worker applies
queued writes in order.
*/
type WriteBackPolicy struct {
	store  types.BackingStore
	logger *slog.Logger

	// ch holds pending write requests. Buffering lets bursts of writes
	// (a populated batch finishing at once) proceed without blocking.
	ch chan writeReq

	// mu guards closed so OnWrite never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

// Option configures a WriteBackPolicy.
type Option func(*WriteBackPolicy)

// WithLogger sets the logger used to report dropped writes.
func WithLogger(logger *slog.Logger) Option {
	return func(w *WriteBackPolicy) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriteBackPolicy creates a write-back policy and starts its worker.
func NewWriteBackPolicy(store types.BackingStore, buffer int, opts ...Option) *WriteBackPolicy {
	if buffer <= 0 {
		buffer = DefaultWriteBackBuffer
	}
	w := &WriteBackPolicy{
		store:  store,
		logger: slog.Default(),
		ch:     make(chan writeReq, buffer),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

// OnWrite queues the durable write. If the queue is full the write is
// dropped: the entry still lives in the memory tier, and the durable tier is
// only an optimization.
func (w *WriteBackPolicy) OnWrite(ctx context.Context, ent types.CacheEntry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}

	// The caller's context usually ends when Set returns.
	req := writeReq{ctx: context.WithoutCancel(ctx), ent: ent}
	select {
	case w.ch <- req:
	default:
		w.logger.Warn("write-back queue full, dropped durable write", "key", ent.Key)
	}
}

// Flush waits until every write queued before the call has been applied, or
// until ctx is done.
func (w *WriteBackPolicy) Flush(ctx context.Context) {
	done := make(chan struct{})

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return
	}
	select {
	case w.ch <- writeReq{done: done}:
	case <-ctx.Done():
		w.mu.RUnlock()
		return
	}
	w.mu.RUnlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// worker applies queued writes in order until the channel is closed.
func (w *WriteBackPolicy) worker() {
	defer w.wg.Done()

	for req := range w.ch {
		if req.done != nil {
			close(req.done)
			continue
		}
		w.store.Put(req.ctx, req.ent)
	}
}

/*
Close shuts down the write-back policy gracefully.
------------------
1. Stop accepting writes
2. Close the channel
3. Wait for the worker to drain the queue

Without this, pending writes could be lost when the application shuts down.
*/
func (w *WriteBackPolicy) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	w.wg.Wait()
}

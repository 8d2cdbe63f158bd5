// Package durable is the persistent half of the hybrid cache: a cross-session
// key/value table of cache entries, wrapped so that it can never fail its caller.
package durable

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/asset-cache/types"
)

type state int

const (
	stateNew state = iota
	stateOpen
	stateUnavailable
	stateClosed
)

var errClosed = errors.New("durable store is closed")

/*
Store adapts a Backend into a types.BackingStore.

Every operation degrades instead of failing:
- Get returns a miss
- Put, Delete and Clear become no-ops
and the underlying error is logged. If the backend cannot be opened at all the
store marks itself unavailable for the rest of the process, so the facade keeps
running on the memory tier alone.
*/
type Store struct {
	backend Backend
	logger  *slog.Logger

	// sf lets concurrent first callers share one in-flight Open.
	sf singleflight.Group

	mu      sync.RWMutex
	state   state
	openErr error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for degraded operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps backend. The backend is not opened until the first Init or the
// first operation that needs it.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/*
Init opens the backend.

It is idempotent: concurrent callers that arrive before the store is open share
one in-flight Open, and once the store is open later calls return immediately.
The shared Open is not tied to any caller's cancellation: a caller whose ctx
ends stops waiting and gets ctx.Err(), while the Open carries on for the rest.
An open failure is sticky and reported as a StoreUnavailable error.
*/
func (s *Store) Init(ctx context.Context) error {
	if done, err := s.settled(); done {
		return err
	}

	openCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan("init", func() (any, error) {
		// Another flight may have finished between settled() and DoChan.
		if done, err := s.settled(); done {
			return nil, err
		}

		if err := s.backend.Open(openCtx); err != nil {
			wrapped := types.StoreUnavailable(err, "open durable store")
			s.mu.Lock()
			s.state = stateUnavailable
			s.openErr = wrapped
			s.mu.Unlock()

			s.logger.Warn("durable cache store unavailable, continuing memory-only", "error", err)
			return nil, wrapped
		}

		s.mu.Lock()
		if s.state == stateClosed {
			s.mu.Unlock()
			_ = s.backend.Close()
			return nil, errClosed
		}
		s.state = stateOpen
		s.mu.Unlock()
		s.logger.Debug("durable cache store opened")
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settled reports whether Init has nothing left to do, and what it should return.
func (s *Store) settled() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.state {
	case stateOpen:
		return true, nil
	case stateUnavailable:
		return true, s.openErr
	case stateClosed:
		return true, errClosed
	default:
		return false, nil
	}
}

// Available reports whether the backend is open and usable.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateOpen
}

// Get returns the stored entry for key, or false when it is absent or the
// store cannot be read.
func (s *Store) Get(ctx context.Context, key string) (types.CacheEntry, bool) {
	if err := s.Init(ctx); err != nil {
		return types.CacheEntry{}, false
	}

	ent, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("durable cache get failed", "key", key, "error", err)
		return types.CacheEntry{}, false
	}
	return ent, ok
}

// Put upserts ent. Failures are logged and swallowed.
func (s *Store) Put(ctx context.Context, ent types.CacheEntry) {
	if err := s.Init(ctx); err != nil {
		return
	}

	if err := s.backend.Put(ctx, ent); err != nil {
		s.logger.Warn("durable cache put failed", "key", ent.Key, "error", err)
	}
}

// Delete removes key. Failures are logged and swallowed.
func (s *Store) Delete(ctx context.Context, key string) {
	if err := s.Init(ctx); err != nil {
		return
	}

	if err := s.backend.Delete(ctx, key); err != nil {
		s.logger.Warn("durable cache delete failed", "key", key, "error", err)
	}
}

// Clear removes every entry. Failures are logged and swallowed.
func (s *Store) Clear(ctx context.Context) {
	if err := s.Init(ctx); err != nil {
		return
	}

	if err := s.backend.Clear(ctx); err != nil {
		s.logger.Warn("durable cache clear failed", "error", err)
	}
}

// Close closes the backend. Later operations degrade as if the store were
// unavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	wasOpen := s.state == stateOpen
	s.state = stateClosed
	s.mu.Unlock()

	if !wasOpen {
		return nil
	}
	return s.backend.Close()
}

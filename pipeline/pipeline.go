// Package pipeline warms the asset cache in the background.
//
// A data-access layer that has just loaded a batch of records hands the
// referenced assets to Populate and moves on. Each asset is checked, fetched
// and stored independently; one failure never aborts the rest of the batch.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/asset-cache/types"
	"github.com/krisalay/asset-cache/warm"
)

const tracerName = "github.com/krisalay/asset-cache/pipeline"

var errClosed = errors.New("pipeline is closed")

// Cache is the part of the cache facade the pipeline needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, encodedData, contentType string)
}

// Stats counts population outcomes. They are diagnostics only; nothing
// branches on them.
type Stats struct {
	Cached  int64 `json:"cached"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

type counters struct {
	cached  atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Cached:  c.cached.Load(),
		Skipped: c.skipped.Load(),
		Failed:  c.failed.Load(),
	}
}

/*
Pipeline drives Loader and Cache.Set for batches of assets.

- Populate never blocks its caller
- Every batch is tracked, so Wait and Close have a defined join point
- Concurrent loads of the same key share one fetch when coalescing is on
*/
type Pipeline struct {
	cache  Cache
	loader types.Loader
	logger *slog.Logger
	tracer trace.Tracer

	// concurrency caps in-flight assets per batch. Zero means unbounded.
	concurrency int

	// coalesce routes loads through sf so one key is fetched once at a time.
	coalesce bool
	sf       singleflight.Group

	// ctx is the parent of every batch; cancel aborts them all on Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	tasks  sync.WaitGroup

	// flights tracks coalesced loads, which may outlive the caller that
	// started them.
	flights sync.WaitGroup

	totals counters
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for per-asset failures and batch summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency caps how many assets of one batch are in flight at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithCoalescing turns request coalescing on or off. It is on by default;
// turning it off lets duplicate keys be fetched concurrently.
func WithCoalescing(on bool) Option {
	return func(p *Pipeline) {
		p.coalesce = on
	}
}

// New builds a pipeline writing into cache and reading from loader.
func New(cache Cache, loader types.Loader, opts ...Option) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		cache:    cache,
		loader:   loader,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		coalesce: true,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Batch is one Populate call in flight.
type Batch struct {
	size  int
	done  chan struct{}
	stats counters
}

// Size is the number of assets the batch was given.
func (b *Batch) Size() int { return b.size }

// Done is closed once every asset of the batch has been handled.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch finishes or ctx ends, whichever is first.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the batch's counters so far.
func (b *Batch) Stats() Stats { return b.stats.snapshot() }

/*
Populate makes sure every asset ends up in the cache, without making the
caller wait. Per asset, independently:

1. Cache hit → skipped
2. Otherwise load it from the origin
3. Store it in the cache → cached
4. Any failure → logged, failed, and the batch carries on

The returned Batch may be ignored; it exists so tests and shutdown code can
join on the work.
*/
func (p *Pipeline) Populate(assets []types.Asset) *Batch {
	b := &Batch{size: len(assets), done: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(b.done)
		return b
	}
	p.tasks.Add(1)
	p.mu.Unlock()

	go p.run(b, assets)
	return b
}

func (p *Pipeline) run(b *Batch, assets []types.Asset) {
	defer p.tasks.Done()
	defer close(b.done)

	ctx, cancel := context.WithCancel(p.ctx)
	defer cancel()

	// The pipeline's own cache checks must not schedule more population.
	ctx = warm.Suppress(ctx)

	ctx, span := p.tracer.Start(ctx, "pipeline.populate",
		trace.WithAttributes(attribute.Int("batch.size", len(assets))),
	)
	defer span.End()

	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for _, asset := range assets {
		g.Go(func() error {
			p.populateOne(ctx, b, asset)
			return nil
		})
	}
	_ = g.Wait()

	stats := b.Stats()
	span.SetAttributes(
		attribute.Int64("batch.cached", stats.Cached),
		attribute.Int64("batch.skipped", stats.Skipped),
		attribute.Int64("batch.failed", stats.Failed),
	)
	p.logger.Debug("asset cache population finished",
		"assets", len(assets),
		"cached", stats.Cached,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
}

func (p *Pipeline) populateOne(ctx context.Context, b *Batch, asset types.Asset) {
	if asset.Key == "" {
		p.fail(b, asset, nil)
		return
	}

	if _, ok := p.cache.Get(ctx, asset.Key); ok {
		b.stats.skipped.Add(1)
		p.totals.skipped.Add(1)
		return
	}

	if _, err := p.load(ctx, asset); err != nil {
		p.fail(b, asset, err)
		return
	}

	b.stats.cached.Add(1)
	p.totals.cached.Add(1)
}

func (p *Pipeline) fail(b *Batch, asset types.Asset, err error) {
	b.stats.failed.Add(1)
	p.totals.failed.Add(1)
	if err == nil {
		p.logger.Warn("asset cache population skipped asset without key")
		return
	}
	p.logger.Warn("asset cache population failed", "key", asset.Key, "error", err)
}

// load fetches asset from the origin and stores it, returning the encoded data.
//
// With coalescing on, the shared flight runs on the pipeline's context, not on
// the context of whichever caller started it. A caller whose ctx ends stops
// waiting and gets ctx.Err(); the fetch carries on for everyone else.
func (p *Pipeline) load(ctx context.Context, asset types.Asset) (string, error) {
	if !p.coalesce {
		return p.fetchAndStore(ctx, asset)
	}

	flightCtx := warm.Suppress(trace.ContextWithSpan(p.ctx, trace.SpanFromContext(ctx)))
	ch := p.sf.DoChan(asset.Key, func() (any, error) {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return "", errClosed
		}
		p.flights.Add(1)
		p.mu.Unlock()
		defer p.flights.Done()

		return p.fetchAndStore(flightCtx, asset)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Pipeline) fetchAndStore(ctx context.Context, asset types.Asset) (string, error) {
	payload, err := p.loader.Load(ctx, asset)
	if err != nil {
		return "", err
	}
	p.cache.Set(ctx, asset.Key, payload.EncodedData, payload.ContentType)
	return payload.EncodedData, nil
}

/*
GetOrFetch reads key from the cache and, on a miss, fetches and stores it
before returning. The encoded data is returned either way.

Unlike Populate this reports the load error: the caller asked for the bytes
and there is nothing cached to fall back on.
*/
func (p *Pipeline) GetOrFetch(ctx context.Context, key string) (string, error) {
	ctx = warm.Suppress(ctx)
	if data, ok := p.cache.Get(ctx, key); ok {
		return data, nil
	}
	return p.load(ctx, types.Asset{Key: key})
}

// OnMiss schedules a single-asset population, so a Pipeline can be used as
// the cache's warm hook.
func (p *Pipeline) OnMiss(key string) {
	p.Populate([]types.Asset{{Key: key}})
}

var _ warm.Hook = (*Pipeline)(nil)

// Stats returns lifetime counters across every batch.
func (p *Pipeline) Stats() Stats {
	return p.totals.snapshot()
}

// Wait blocks until every batch started so far has finished, or ctx ends.
func (p *Pipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting batches, cancels the ones in flight and waits for them.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.tasks.Wait()
	p.flights.Wait()
}

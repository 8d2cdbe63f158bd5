package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	cache "github.com/krisalay/asset-cache"
	"github.com/krisalay/asset-cache/config"
	"github.com/krisalay/asset-cache/durable"
	"github.com/krisalay/asset-cache/engine"
	"github.com/krisalay/asset-cache/eviction"
	"github.com/krisalay/asset-cache/expiration"
	"github.com/krisalay/asset-cache/fetch"
	"github.com/krisalay/asset-cache/pipeline"
	"github.com/krisalay/asset-cache/telemetry"
	"github.com/krisalay/asset-cache/types"
	"github.com/krisalay/asset-cache/writepolicy"
)

// app is one fully wired cache, built per command invocation.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	backend  *durable.SQLiteBackend
	engine   *engine.CacheEngine
	cache    *cache.HybridCache
	pipeline *pipeline.Pipeline

	shutdownTracing func(context.Context) error
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// newApp wires config into the durable store, write policy, engine, facade,
// loaders and pipeline, then opens the durable tier.
func newApp(ctx context.Context, cfg config.Config, logs io.Writer) (*app, error) {
	logger, err := newLogger(logs, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, telemetry.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	backend := durable.NewSQLiteBackend(cfg.DBPath)
	store := durable.New(backend, durable.WithLogger(logger))

	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: cfg.TTL},
		nil,
		writepolicy.New(writepolicy.Mode(cfg.WriteMode), store, cfg.WriteBackBuffer, writepolicy.WithLogger(logger)),
		&types.Counters{},
	)

	c := cache.NewHybridCache(
		cfg.MemoryCapacity,
		eviction.NewFIFO(),
		store,
		eng,
		cache.WithLogger(logger),
	)
	c.Init(ctx)

	loader, err := newLoader(cfg)
	if err != nil {
		c.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	p := pipeline.New(c, loader,
		pipeline.WithLogger(logger),
		pipeline.WithConcurrency(cfg.PipelineConcurrency),
		pipeline.WithCoalescing(cfg.Coalesce),
	)

	return &app{
		cfg:             cfg,
		logger:          logger,
		backend:         backend,
		engine:          eng,
		cache:           c,
		pipeline:        p,
		shutdownTracing: shutdown,
	}, nil
}

// newLoader routes http(s) keys to the HTTP loader and, when an object store
// is configured, s3:// keys to it.
func newLoader(cfg config.Config) (types.Loader, error) {
	opts := []fetch.HTTPOption{
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
	}
	if cfg.MaxAssetBytes > 0 {
		opts = append(opts, fetch.WithMaxBytes(cfg.MaxAssetBytes))
	}
	router := fetch.NewRouter(opts...)

	if cfg.S3Endpoint != "" {
		objects, err := fetch.NewObjectStoreLoader(fetch.ObjectStoreConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		router.Handle(fetch.SchemeObjectStore, objects)
	}
	return router, nil
}

// warmOnMiss makes cache misses schedule a background population.
func (a *app) warmOnMiss() {
	a.engine.Warm = a.pipeline
}

// Close stops the pipeline before the cache so no population writes into a
// closed store.
func (a *app) Close(ctx context.Context) {
	a.pipeline.Close()
	a.cache.Close()
	if err := a.shutdownTracing(ctx); err != nil {
		a.logger.Warn("tracing shutdown failed", "error", err)
	}
}

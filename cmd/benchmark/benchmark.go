package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	cache "github.com/krisalay/asset-cache"
	"github.com/krisalay/asset-cache/durable"
	"github.com/krisalay/asset-cache/engine"
	"github.com/krisalay/asset-cache/eviction"
	"github.com/krisalay/asset-cache/expiration"
	"github.com/krisalay/asset-cache/types"
	"github.com/krisalay/asset-cache/writepolicy"
)

// A 1x1 PNG, base64 encoded.
const payload = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// ================= BENCHMARK =================

func main() {
	var (
		capacity    = flag.Int("capacity", 20, "memory tier capacity")
		preloadKeys = flag.Int("keys", 200, "distinct keys written before the run")
		goroutines  = flag.Int("goroutines", 64, "concurrent readers")
		opsPerG     = flag.Int("ops", 2000, "reads per goroutine")
		writeMode   = flag.String("write-mode", "through", "through or back")
	)
	flag.Parse()

	ctx := context.Background()

	dir, err := os.MkdirTemp("", "asset-cache-bench")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", *capacity)
	fmt.Println("Preload Keys :", *preloadKeys)
	fmt.Println("Goroutines   :", *goroutines)
	fmt.Println("Ops/Goroutine:", *opsPerG)
	fmt.Println("Write Mode   :", *writeMode)
	fmt.Println("---------------------------------")

	// ---------------- Durable Store ----------------
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := durable.New(durable.NewSQLiteBackend(filepath.Join(dir, "bench.db")), durable.WithLogger(logger))

	// ---------------- Cache Engine ----------------
	counters := &types.Counters{}
	engine := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: expiration.DefaultTTL},
		nil,
		writepolicy.New(writepolicy.Mode(*writeMode), store, 4096, writepolicy.WithLogger(logger)),
		counters,
	)

	c := cache.NewHybridCache(
		*capacity,
		eviction.NewFIFO(),
		store,
		engine,
		cache.WithLogger(logger),
	)
	c.Init(ctx)

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	start := time.Now()
	for i := 0; i < *preloadKeys; i++ {
		c.Set(ctx, fmt.Sprintf("https://assets.example/%d.png", i), payload, "image/png")
	}
	engine.Flush(ctx)
	fmt.Printf("Preload complete in %v.\n", time.Since(start))

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start = time.Now()

	wg := sync.WaitGroup{}
	wg.Add(*goroutines)

	for i := 0; i < *goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < *opsPerG; j++ {
				key := fmt.Sprintf("https://assets.example/%d.png", (id+j)%*preloadKeys)
				c.Get(ctx, key)
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := *goroutines * *opsPerG
	snap := counters.Snapshot()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hits / Misses    : %d / %d\n", snap.Hits, snap.Misses)
	fmt.Printf("Promotions       : %d\n", snap.Promotions)
	fmt.Printf("Evictions        : %d\n", snap.Evictions)
	fmt.Println("=========================================")

	c.Close()
}

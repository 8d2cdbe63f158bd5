package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/asset-cache/engine"
	"github.com/krisalay/asset-cache/expiration"
	"github.com/krisalay/asset-cache/types"
	"github.com/krisalay/asset-cache/warm"
)

func TestIsExpiredUsesClock(t *testing.T) {
	counters := &types.Counters{}
	e := engine.NewCacheEngine(&expiration.ExpireAfterWrite{TTL: time.Hour}, nil, nil, counters)

	written := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ent := types.NewCacheEntry("u1", "QUJD", "image/png", written)

	e.Clock = func() time.Time { return written.Add(30 * time.Minute) }
	assert.False(t, e.IsExpired(ent))

	e.Clock = func() time.Time { return written.Add(2 * time.Hour) }
	assert.True(t, e.IsExpired(ent))
	assert.Equal(t, int64(0), counters.Snapshot().Expired, "checking is not recording")

	e.RecordExpired()
	assert.Equal(t, int64(1), counters.Snapshot().Expired)
}

func TestNilExpirationNeverExpires(t *testing.T) {
	e := engine.NewCacheEngine(nil, nil, nil, nil)
	ent := types.NewCacheEntry("u1", "QUJD", "image/png", time.Unix(0, 0))
	assert.False(t, e.IsExpired(ent))
}

func TestOnMissFiresHookUnlessSuppressed(t *testing.T) {
	var missed []string
	hook := warm.HookFunc(func(key string) { missed = append(missed, key) })
	counters := &types.Counters{}
	e := engine.NewCacheEngine(nil, hook, nil, counters)

	e.OnMiss(context.Background(), "u1")
	e.OnMiss(warm.Suppress(context.Background()), "u2")

	assert.Equal(t, []string{"u1"}, missed)
	assert.Equal(t, int64(2), counters.Snapshot().Misses)
}

func TestNilWritePolicyIsSafe(t *testing.T) {
	e := engine.NewCacheEngine(nil, nil, nil, nil)
	assert.NotPanics(t, func() {
		e.OnWrite(context.Background(), types.CacheEntry{Key: "u1"})
		e.Flush(context.Background())
		e.Close()
	})
}

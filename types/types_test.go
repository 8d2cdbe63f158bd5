package types_test

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/asset-cache/types"
)

func TestNewCacheEntry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ent := types.NewCacheEntry("u1", "QUJD", "image/png", now)

	assert.Equal(t, now.UnixMilli(), ent.Timestamp)
	assert.True(t, ent.WrittenAt().Equal(now))
	assert.Equal(t, time.Hour, ent.Age(now.Add(time.Hour)))
}

func TestDataURI(t *testing.T) {
	ent := types.CacheEntry{Key: "u1", EncodedData: "QUJD", ContentType: "image/webp"}
	assert.Equal(t, "data:image/webp;base64,QUJD", ent.DataURI())

	ent.ContentType = ""
	assert.Equal(t, "data:image/jpeg;base64,QUJD", ent.DataURI())
}

func TestErrorCodes(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		code  errors.ErrorCode
	}{
		{"store unavailable", types.StoreUnavailable(cause, "open durable store"), types.IsStoreUnavailable, types.CodeStoreUnavailable},
		{"fetch failed", types.FetchFailed(cause, "https://a/b.png"), types.IsFetchFailed, types.CodeFetchFailed},
		{"fetch status", types.FetchStatus("https://a/b.png", 503), types.IsFetchFailed, types.CodeFetchFailed},
		{"decode failed", types.DecodeFailed(cause, "https://a/b.png"), types.IsDecodeFailed, types.CodeDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.code, errors.GetCode(tt.err))
		})
	}
}

func TestErrorsKeepCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := types.FetchFailed(cause, "https://a/b.png")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, types.IsDecodeFailed(err))
}

func TestFetchStatusContext(t *testing.T) {
	err := types.FetchStatus("https://a/b.png", 404)

	var pe errors.PlatformError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 404, pe.Context()["status"])
	assert.Equal(t, "https://a/b.png", pe.Context()["key"])
	assert.Contains(t, err.Error(), "404")
}

func TestStoreUnavailableIsPermanent(t *testing.T) {
	err := types.StoreUnavailable(stderrors.New("disk full"), "open durable store")
	assert.False(t, errors.IsRetryable(err))
}

func TestCounters(t *testing.T) {
	var c types.Counters

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Hit()
			c.Miss()
		}()
	}
	wg.Wait()
	c.Promote()
	c.Eviction()
	c.Expire()
	c.Expire()

	assert.Equal(t, types.MetricsSnapshot{
		Hits:       50,
		Misses:     50,
		Promotions: 1,
		Evictions:  1,
		Expired:    2,
	}, c.Snapshot())
}

func TestNoopMetrics(t *testing.T) {
	var m types.Metrics = types.NoopMetrics{}
	m.Hit()
	m.Miss()
	m.Promote()
	m.Eviction()
	m.Expire()
}

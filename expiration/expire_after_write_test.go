package expiration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/asset-cache/expiration"
	"github.com/krisalay/asset-cache/types"
)

func TestExpireAfterWrite(t *testing.T) {
	written := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ent := types.NewCacheEntry("u1", "QUJD", "image/png", written)
	exp := &expiration.ExpireAfterWrite{TTL: expiration.DefaultTTL}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"fresh", written, false},
		{"one day", written.Add(24 * time.Hour), false},
		{"exactly ttl", written.Add(expiration.DefaultTTL), false},
		{"just past ttl", written.Add(expiration.DefaultTTL + time.Millisecond), true},
		{"long past ttl", written.Add(90 * 24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exp.IsExpired(ent, tt.now))
		})
	}
}

func TestExpireAfterWriteDisabled(t *testing.T) {
	ent := types.NewCacheEntry("u1", "QUJD", "image/png", time.Unix(0, 0))
	exp := &expiration.ExpireAfterWrite{}

	assert.False(t, exp.IsExpired(ent, time.Now()))
}

package warm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/asset-cache/warm"
)

func TestSuppress(t *testing.T) {
	ctx := context.Background()
	assert.False(t, warm.Suppressed(ctx))

	suppressed := warm.Suppress(ctx)
	assert.True(t, warm.Suppressed(suppressed))

	child, cancel := context.WithCancel(suppressed)
	defer cancel()
	assert.True(t, warm.Suppressed(child), "suppression is inherited")
}

func TestHookFunc(t *testing.T) {
	var got []string
	var h warm.Hook = warm.HookFunc(func(key string) { got = append(got, key) })

	h.OnMiss("a")
	h.OnMiss("b")
	assert.Equal(t, []string{"a", "b"}, got)
}

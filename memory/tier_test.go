package memory_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/asset-cache/memory"
	"github.com/krisalay/asset-cache/types"
)

func entry(key, data string) types.CacheEntry {
	return types.NewCacheEntry(key, data, "image/png", time.Now())
}

func TestTierSetGet(t *testing.T) {
	tier := memory.NewTier(3, nil)

	_, ok := tier.Get("u1")
	require.False(t, ok)

	tier.Set("u1", entry("u1", "QUJD"))

	got, ok := tier.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "QUJD", got.EncodedData)
	assert.Equal(t, "image/png", got.ContentType)
}

func TestTierDefaultCapacity(t *testing.T) {
	tier := memory.NewTier(0, nil)
	assert.Equal(t, memory.DefaultCapacity, tier.Capacity())
}

func TestTierEvictsOldestInserted(t *testing.T) {
	tier := memory.NewTier(memory.DefaultCapacity, nil)

	for i := 0; i < memory.DefaultCapacity; i++ {
		key := fmt.Sprintf("k%d", i)
		require.Empty(t, tier.Set(key, entry(key, "x")))
	}
	require.Equal(t, memory.DefaultCapacity, tier.Len())

	// Reads do not refresh position.
	_, ok := tier.Get("k0")
	require.True(t, ok)

	evicted := tier.Set("extra", entry("extra", "y"))

	assert.Equal(t, []string{"k0"}, evicted)
	assert.Equal(t, memory.DefaultCapacity, tier.Len())
	_, ok = tier.Get("k0")
	assert.False(t, ok)
	_, ok = tier.Get("k1")
	assert.True(t, ok)
	_, ok = tier.Get("extra")
	assert.True(t, ok)
}

func TestTierOverwriteDoesNotEvict(t *testing.T) {
	tier := memory.NewTier(2, nil)
	tier.Set("a", entry("a", "1"))
	tier.Set("b", entry("b", "2"))

	evicted := tier.Set("a", entry("a", "3"))
	assert.Empty(t, evicted)

	got, _ := tier.Get("a")
	assert.Equal(t, "3", got.EncodedData)

	// "a" kept its original slot, so it is still the oldest.
	evicted = tier.Set("c", entry("c", "4"))
	assert.Equal(t, []string{"a"}, evicted)
}

func TestTierDeleteAndClear(t *testing.T) {
	tier := memory.NewTier(5, nil)
	tier.Set("a", entry("a", "1"))
	tier.Set("b", entry("b", "2"))

	tier.Delete("a")
	tier.Delete("missing")
	_, ok := tier.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, tier.Len())

	tier.Clear()
	assert.Equal(t, 0, tier.Len())
	_, ok = tier.Get("b")
	assert.False(t, ok)
}

func TestTierNeverExceedsCapacityUnderConcurrency(t *testing.T) {
	tier := memory.NewTier(4, nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				tier.Set(key, entry(key, "x"))
				tier.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, tier.Len(), 4)
}

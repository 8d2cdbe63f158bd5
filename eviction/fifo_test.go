package eviction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/asset-cache/eviction"
)

func TestFIFOEvictsInInsertionOrder(t *testing.T) {
	p := eviction.NewFIFO()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")

	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestFIFOIgnoresReads(t *testing.T) {
	p := eviction.NewFIFO()
	p.OnPut("a")
	p.OnPut("b")

	p.OnGet("a")
	p.OnGet("a")

	assert.Equal(t, "a", p.Evict(), "reading a key must not refresh its position")
}

func TestFIFOOverwriteKeepsPosition(t *testing.T) {
	p := eviction.NewFIFO()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("a")

	require.Equal(t, 2, p.Len())
	assert.Equal(t, "a", p.Evict())
}

func TestFIFORemove(t *testing.T) {
	p := eviction.NewFIFO()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")

	p.Remove("b")
	p.Remove("missing")

	require.Equal(t, 2, p.Len())
	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "c", p.Evict())
}

func TestFIFOReset(t *testing.T) {
	p := eviction.NewFIFO()
	p.OnPut("a")
	p.Reset()

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, "", p.Evict())

	p.OnPut("a")
	assert.Equal(t, 1, p.Len())
}

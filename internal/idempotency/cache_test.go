package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/aha-mcp-server/internal/protocol"
)

func ok(text string) protocol.ToolResult {
	return protocol.ToolResult{Status: protocol.StatusSuccess, Text: text}
}

func TestCacheGetSet(t *testing.T) {
	c := NewCache(time.Minute, 10)
	c.Set("create_feature:abc", ok("created"))

	got, found := c.Get("create_feature:abc")
	require.True(t, found)
	assert.Equal(t, "created", got.Text)

	_, found = c.Get("create_feature:other")
	assert.False(t, found)
}

func TestCacheExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(time.Minute, 10)
	c.now = func() time.Time { return now }
	c.Set("k", ok("v"))

	now = now.Add(59 * time.Second)
	_, found := c.Get("k")
	assert.True(t, found)

	now = now.Add(2 * time.Second)
	_, found = c.Get("k")
	assert.False(t, found)
	assert.Zero(t, c.Len())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(time.Minute, 2)
	c.Set("a", ok("1"))
	c.Set("b", ok("2"))
	_, _ = c.Get("a")
	c.Set("c", ok("3"))

	_, found := c.Get("b")
	assert.False(t, found)
	_, found = c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 2, c.Len())
}

func TestCacheSkipsFailures(t *testing.T) {
	c := NewCache(time.Minute, 2)
	c.Set("k", protocol.ToolResult{Status: protocol.StatusError, Text: "boom"})
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	c.Set("k", ok("v"))
	_, found := c.Get("k")
	assert.False(t, found)
	assert.Zero(t, c.Len())
}

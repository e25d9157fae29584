package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"tubedigest/infrastructure/cache"
)

// A nil client means caching is disabled; every method must degrade to a
// no-op instead of panicking.
func TestDirectoryCache_NilClientIsNoop(t *testing.T) {
	c := cache.NewDirectoryCache(nil)
	assert.NotNil(t, c)

	got, ok := c.Get(context.Background(), "user-1")
	assert.False(t, ok)
	assert.Nil(t, got)

	c.Set(context.Background(), "user-1", nil)
	c.Invalidate(context.Background(), "user-1")
}

func TestDirectoryCache_NilReceiverIsNoop(t *testing.T) {
	var c *cache.DirectoryCache
	_, ok := c.Get(context.Background(), "user-1")
	assert.False(t, ok)
	c.Set(context.Background(), "user-1", nil)
	c.Invalidate(context.Background(), "user-1")
}

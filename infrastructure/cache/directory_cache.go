package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tubedigest/domain/model"
	"tubedigest/infrastructure/logger"
)

// DirectoryCacheTTL bounds how stale a cached channel directory may get.
const DirectoryCacheTTL = 5 * time.Minute

// DirectoryCache keeps a per-user copy of the upstream channel directory so
// repeated dashboard loads do not burn the subscriptions API quota. All
// methods are no-ops when the Redis client is nil.
type DirectoryCache struct {
	client *redis.Client
}

func NewDirectoryCache(client *redis.Client) *DirectoryCache {
	return &DirectoryCache{client: client}
}

func directoryKey(userID string) string {
	return fmt.Sprintf("directory:%s", userID)
}

func (c *DirectoryCache) Get(ctx context.Context, userID string) ([]model.ChannelSummary, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, directoryKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().WithField("error", err).Warn("directory cache read failed")
		}
		return nil, false
	}
	var channels []model.ChannelSummary
	if err := json.Unmarshal(raw, &channels); err != nil {
		logger.GetLogger().WithField("error", err).Warn("directory cache entry corrupt; dropping")
		c.client.Del(ctx, directoryKey(userID))
		return nil, false
	}
	return channels, true
}

func (c *DirectoryCache) Set(ctx context.Context, userID string, channels []model.ChannelSummary) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(channels)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, directoryKey(userID), raw, DirectoryCacheTTL).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("directory cache write failed")
	}
}

// Invalidate drops the cached directory after a selection mutation so the
// next read reflects upstream again.
func (c *DirectoryCache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, directoryKey(userID)).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("directory cache invalidate failed")
	}
}

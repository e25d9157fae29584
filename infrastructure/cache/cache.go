package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"tubedigest/infrastructure/logger"
)

// NewCache connects to Redis and verifies the connection. Callers treat a
// nil client as "caching disabled" rather than a fatal condition.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.GetLogger().WithField("addr", addr).WithField("error", err).Warn("Redis not reachable")
		return nil, err
	}
	return client, nil
}

package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
}

// StoreOption configures the session store factory.
type StoreOption func(*storeConfig)

// WithRedisClient supplies the redis client for the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets how long idle sessions live in redis.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionCache maps issued access tokens to user ids so the auth middleware
// can skip signature verification on hot paths. A nil client disables the
// cache; every method degrades to a miss.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

// NewRedisClient connects from a redis URL. An empty URL or a failed ping
// returns nil, which callers treat as cache-disabled.
func NewRedisClient(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

func (c *SessionCache) SetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, "token:"+token, userID, ttl).Err()
}

func (c *SessionCache) GetToken(ctx context.Context, token string) (string, bool) {
	if c.client == nil {
		return "", false
	}
	userID, err := c.client.Get(ctx, "token:"+token).Result()
	if err != nil {
		return "", false
	}
	return userID, true
}

func (c *SessionCache) DeleteToken(ctx context.Context, token string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, "token:"+token).Err()
}

func (c *SessionCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

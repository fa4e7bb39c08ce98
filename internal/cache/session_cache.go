package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache maps session tokens to team codes in front of the sessions
// collection. A miss is not an authoritative answer; callers fall back to
// the store.
type SessionCache interface {
	Set(ctx context.Context, token, teamCode string) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, tokens ...string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a Redis-backed session cache. The TTL only bounds
// cache memory; sessions themselves never expire.
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(token string) string {
	return "session:" + token
}

func (c *sessionCache) Set(ctx context.Context, token, teamCode string) error {
	return c.client.Set(ctx, c.key(token), teamCode, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, token string) (string, error) {
	code, err := c.client.Get(ctx, c.key(token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

func (c *sessionCache) Delete(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = c.key(t)
	}
	return c.client.Del(ctx, keys...).Err()
}

type noopSessionCache struct{}

// NewNoopSessionCache is used when Redis is not configured
func NewNoopSessionCache() SessionCache {
	return noopSessionCache{}
}

func (noopSessionCache) Set(context.Context, string, string) error   { return nil }
func (noopSessionCache) Get(context.Context, string) (string, error) { return "", nil }
func (noopSessionCache) Delete(context.Context, ...string) error     { return nil }

package factory

import (
	"context"
	"time"

	"github.com/akeren/pingaroo/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
}

// DefaultRateLimiterFactory builds Redis-backed limiters when the cache
// exposes a Redis client and in-memory limiters otherwise.
type DefaultRateLimiterFactory struct {
	config *ratelimit.RateLimitConfig
}

// scope namespaces the Redis keys so this limiter's window is independent of others.
func NewDefaultRateLimiterFactory(scope string, requests int, window time.Duration, cache Cache, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	var redisClient *redis.Client
	if cache != nil {
		if provider, ok := cache.(RedisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}

	return &DefaultRateLimiterFactory{
		config: &ratelimit.RateLimitConfig{
			Requests: requests,
			Window:   window,
			Scope:    scope,
			Redis:    redisClient,
			Logger:   logger,
		},
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(f.config)
}

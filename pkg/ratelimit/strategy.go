package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

const defaultKeyPrefix = "ratelimit:"

type Logger interface {
	Error(msg string, args ...interface{})
}

func generateUniqueID() string {
	bytes := make([]byte, 8)

	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// RateLimiter defines the strategy interface for rate limiting
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

// InMemoryRateLimiter implements token bucket rate limiting for single instances
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ops      uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(_ context.Context, key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		rps := float64(r.requests) / r.window.Seconds()
		k = &keyedLimiter{
			limiter: rate.NewLimiter(rate.Limit(rps), r.requests),
		}
		r.limiters[key] = k
	}
	k.lastSeen = now

	// Keys idle for two windows are swept every 1024 calls.
	r.ops++
	if r.ops%1024 == 0 {
		r.sweep(now.Add(-2 * r.window))
	}

	return !k.limiter.AllowN(now, 1), nil
}

func (r *InMemoryRateLimiter) sweep(cutoff time.Time) {
	for key, k := range r.limiters {
		if k.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
		}
	}
}

func (r *InMemoryRateLimiter) trackedKeys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

// slidingWindowScript counts requests in the trailing window with millisecond
// scores and records the current one only when it is admitted.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local memberId = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

	if redis.call('ZCARD', key) >= limit then
		return 1
	end

	redis.call('ZADD', key, now, memberId)
	redis.call('PEXPIRE', key, window * 2)

	return 0
`)

// RedisRateLimiter implements sliding window rate limiting for distributed systems
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

// NewRedisRateLimiter keys entries as "ratelimit:<scope>:<key>" so limiters
// with different limits never share a window.
func NewRedisRateLimiter(client *redis.Client, scope string, requests int, window time.Duration, logger Logger) *RedisRateLimiter {
	prefix := defaultKeyPrefix
	if scope = strings.Trim(scope, ":"); scope != "" {
		prefix += scope + ":"
	}

	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: prefix,
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) fullKey(key string) string {
	if strings.HasPrefix(key, r.keyPrefix) {
		return key
	}
	return r.keyPrefix + strings.TrimPrefix(key, defaultKeyPrefix)
}

func (r *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	fullKey := r.fullKey(key)

	result, err := slidingWindowScript.Run(ctx, r.client, []string{fullKey},
		time.Now().UnixMilli(),
		r.window.Milliseconds(),
		r.requests,
		generateUniqueID(),
	).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		// Limiting is a security control, so a Redis failure is surfaced rather than ignored.
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	return result == 1, nil
}

// The Redis client is owned by the ApplicationConfig and closed there
func (r *RedisRateLimiter) Close() error {
	return nil
}

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Scope    string        // Redis key namespace; ignored in memory
	Redis    *redis.Client // Optional, if nil uses in-memory
	Logger   Logger        // Optional logger for Redis operations
}

// NewRateLimiter creates a rate limiter based on configuration
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Scope, config.Requests, config.Window, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}

// Package ratelimit throttles login attempts with a token bucket kept in
// Redis, so every server instance shares the same budget per client.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "userdesk:ratelimit:login:"

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes atomically.
// KEYS[1] bucket; ARGV rate (tokens/s), burst, now (s), ttl (s).
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tostring(tokens), 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// Limiter is a per-key token bucket. A nil *Limiter allows everything.
type Limiter struct {
	client *redis.Client
	rate   float64
	burst  int
	ttl    time.Duration
	now    func() time.Time
}

// Connect parses url and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 1
	opt.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// New returns a limiter granting perMinute attempts per minute with bursts
// of up to burst.
func New(client *redis.Client, perMinute, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	rate := float64(perMinute) / 60.0
	ttl := time.Minute
	if rate > 0 {
		ttl = time.Duration(math.Ceil(float64(burst)/rate)) * time.Second
	}
	return &Limiter{
		client: client,
		rate:   rate,
		burst:  burst,
		ttl:    max(ttl, time.Second),
		now:    time.Now,
	}
}

// Allow takes one token from the bucket of key. On Redis failure it fails
// open: the result allows the request and the error is returned for logging.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if l == nil || l.rate <= 0 {
		return Result{Allowed: true}, nil
	}

	res, err := tokenBucketScript.Run(ctx, l.client,
		[]string{keyPrefix + hashKey(key)},
		l.rate, l.burst, l.now().Unix(), int(l.ttl.Seconds()),
	).Int64Slice()
	if err != nil {
		return Result{Allowed: true, Remaining: int64(l.burst)}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 3 {
		return Result{Allowed: true, Remaining: int64(l.burst)}, fmt.Errorf("rate limit check: unexpected reply %v", res)
	}

	return Result{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Second,
		Remaining:  res[2],
	}, nil
}

// hashKey keeps raw client addresses out of Redis.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

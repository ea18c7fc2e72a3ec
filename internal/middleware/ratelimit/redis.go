package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed-window counters across API instances. Each key
// maps to "<prefix>:<key>:<window index>", incremented and given a TTL in a
// single pipeline.
type RedisLimiter struct {
	client            redis.Cmdable
	prefix            string
	requestsPerMinute int
	now               func() time.Time
	closer            func() error
}

// NewRedisLimiter connects to redisURL and verifies the connection.
func NewRedisLimiter(ctx context.Context, redisURL string, config Config) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	rl := NewRedisLimiterWithClient(client, config)
	rl.closer = client.Close
	return rl, nil
}

// NewRedisLimiterWithClient wraps an existing client; the caller owns it.
func NewRedisLimiterWithClient(client redis.Cmdable, config Config) *RedisLimiter {
	config = config.normalized()
	return &RedisLimiter{
		client:            client,
		prefix:            "cmoney:ratelimit",
		requestsPerMinute: config.RequestsPerMinute,
		now:               time.Now,
	}
}

func (rl *RedisLimiter) windowKey(key string) string {
	idx := rl.now().Unix() / int64(Window/time.Second)
	return rl.prefix + ":" + key + ":" + strconv.FormatInt(idx, 10)
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rl.windowKey(key)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, 2*Window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(rl.requestsPerMinute), nil
}

func (rl *RedisLimiter) Stop() {
	if rl.closer != nil {
		_ = rl.closer()
	}
}

package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DivyanshuTiwari-1/makeupai/internal/logger"
)

// RedisLimiter shares fixed-window counters across processes. Keys are
// stamped with the window start so they expire naturally. Redis errors fail
// open: losing admission control briefly is preferable to refusing traffic.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	period time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, period time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:addr:"
	}
	if period <= 0 {
		period = time.Minute
	}
	// key stamps have second granularity
	if period < time.Second {
		period = time.Second
	}
	return &RedisLimiter{rdb: rdb, prefix: prefix, period: period}
}

// windowKey stamps the key with the start of the current window so counters
// expire naturally.
func (r *RedisLimiter) windowKey(key string, now time.Time) string {
	return r.prefix + key + ":" + strconv.FormatInt(now.Truncate(r.period).Unix(), 10)
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int) bool {
	if limit <= 0 || r.rdb == nil {
		return true
	}

	redisKey := r.windowKey(key, time.Now())

	pipe := r.rdb.Pipeline()
	cnt := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.period*2)
	if _, err := pipe.Exec(ctx); err != nil {
		// counter store down: admit rather than refuse traffic
		logger.L().Warn("rate limit counter unavailable", zap.Error(err))
		return true
	}

	return cnt.Val() <= int64(limit)
}

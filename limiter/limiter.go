// Package limiter counts requests per key in fixed windows. Redis is used when available so
// limits hold across instances; the in-memory limiter takes over when Redis fails.
package limiter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "rate_limit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	k := l.prefix + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// MemoryLimiter keeps a token bucket per key refilling limit tokens per window.
type MemoryLimiter struct {
	limiters sync.Map
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.getLimiter(key, limit, window).Allow(), nil
}

func (l *MemoryLimiter) getLimiter(key string, limit int, window time.Duration) *rate.Limiter {
	k := fmt.Sprintf("%s|%d|%s", key, limit, window)
	if v, ok := l.limiters.Load(k); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := limit
	if burst <= 0 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Every(window/time.Duration(burst)), burst)
	actual, loaded := l.limiters.LoadOrStore(k, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

// FailoverLimiter prefers primary and switches to fallback after an error, retrying the
// primary once per recoverAfter.
type FailoverLimiter struct {
	primary      Limiter
	fallback     Limiter
	logger       *logrus.Logger
	recoverAfter time.Duration
	isDown       atomic.Bool
	lastCheck    atomic.Int64
}

func NewFailoverLimiter(primary, fallback Limiter, logger *logrus.Logger) *FailoverLimiter {
	return &FailoverLimiter{
		primary:      primary,
		fallback:     fallback,
		logger:       logger,
		recoverAfter: time.Minute,
	}
}

func (l *FailoverLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.isDown.Load() && time.Since(time.Unix(0, l.lastCheck.Load())) > l.recoverAfter {
		allowed, err := l.primary.Allow(ctx, key, limit, window)
		if err == nil {
			l.isDown.Store(false)
			l.logger.Info("Primary rate limiter recovered")
			return allowed, nil
		}
		l.lastCheck.Store(time.Now().UnixNano())
	}

	if !l.isDown.Load() {
		allowed, err := l.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		l.logger.WithError(err).Error("Primary rate limiter failed, falling back to memory")
		l.isDown.Store(true)
		l.lastCheck.Store(time.Now().UnixNano())
	}

	return l.fallback.Allow(ctx, key, limit, window)
}

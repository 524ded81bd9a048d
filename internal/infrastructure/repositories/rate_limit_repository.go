package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

// RateLimitRedisRepository keeps one Redis counter per key and window.
type RateLimitRedisRepository struct {
	r         redis.Cmdable
	keyPrefix string
	now       func() time.Time
}

var _ ports.RateLimitRepository = (*RateLimitRedisRepository)(nil)

func NewRateLimitRedisRepository(r redis.Cmdable, keyPrefix string) *RateLimitRedisRepository {
	return &RateLimitRedisRepository{r: r, keyPrefix: keyPrefix, now: time.Now}
}

// counterKey is "<prefix>:<key>:<window start unix>".
func (repo *RateLimitRedisRepository) counterKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", repo.keyPrefix, key, windowStart.Unix())
}

// IncrementWindow increments and sets the expiry in one MULTI. Counters live
// one window past their own so a late reader still sees them.
func (repo *RateLimitRedisRepository) IncrementWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	windowStart := repo.now().Truncate(window)
	counterKey := repo.counterKey(key, windowStart)

	pipe := repo.r.TxPipeline()
	incr := pipe.Incr(ctx, counterKey)
	pipe.ExpireAt(ctx, counterKey, windowStart.Add(2*window))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, windowStart, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	return int(incr.Val()), windowStart, nil
}

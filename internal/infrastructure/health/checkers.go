package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	infraDB "github.com/avatarctic/perfmgmt-saas/internal/infrastructure/db"
)

// dbHealthChecker pings the link and account database.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Required() bool                  { return true }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

// redisHealthChecker pings the rate-limit counter store. The limiter fails
// open, so Redis is optional.
type redisHealthChecker struct{ client redis.UniversalClient }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Required() bool                  { return false }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// memoryHealthChecker reports the in-memory store, which is always reachable.
type memoryHealthChecker struct{}

func (memoryHealthChecker) Name() string                { return "memory_store" }
func (memoryHealthChecker) Required() bool              { return true }
func (memoryHealthChecker) Check(context.Context) error { return nil }

// NewDBHealthChecker creates a health checker for the database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.UniversalClient) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewMemoryHealthChecker creates a checker for STORE_DRIVER=memory.
func NewMemoryHealthChecker() ports.HealthChecker { return memoryHealthChecker{} }

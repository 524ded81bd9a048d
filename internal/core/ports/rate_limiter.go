package ports

import (
	"context"
	"time"
)

// RateLimitRepository stores fixed-window request counters. Implementations
// must increment atomically and are safe for concurrent use.
type RateLimitRepository interface {
	// IncrementWindow adds one to key's counter for the window containing now
	// and returns the new count and the window start.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimiterService limits how often a caller may trigger link emails.
// Implementations MUST be safe for concurrent use.
type RateLimiterService interface {
	// Allow consumes one request unit for key and reports whether it is permitted.
	// remaining: requests still allowed in the current window after this one (>=0)
	// limit: configured max requests per window
	// reset: end of the current window
	Allow(ctx context.Context, key string) (allowed bool, remaining int, limit int, reset time.Time, err error)
}

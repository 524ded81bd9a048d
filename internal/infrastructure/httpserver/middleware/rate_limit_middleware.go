package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/helpers"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

type RateLimitMiddleware struct {
	rateLimiter ports.RateLimiterService
	logger      *logrus.Logger
}

func NewRateLimitMiddleware(rateLimiter ports.RateLimiterService, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter, logger: logger}
}

// PerClient limits link email requests by client IP. A nil limiter disables
// limiting and a limiter error lets the request through.
func (r *RateLimitMiddleware) PerClient() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.rateLimiter == nil {
				return next(c)
			}
			key := helpers.ClientKey(c)
			helpers.SetRateLimitKey(c, key)

			allowed, remaining, limit, reset, err := r.rateLimiter.Allow(c.Request().Context(), key)
			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(reset.Unix(), 10))

			if err != nil {
				if r.logger != nil {
					r.logger.WithError(err).WithField("key", key).Warn("rate limiter error; allowing request (fail-open)")
				}
				return next(c)
			}
			if !allowed {
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(reset)))
				if r.logger != nil {
					r.logger.WithFields(logrus.Fields{"key": key, "path": c.Path()}).Info("Link request rate limited")
				}
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func retryAfterSeconds(reset time.Time) int {
	secs := int(math.Ceil(time.Until(reset).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

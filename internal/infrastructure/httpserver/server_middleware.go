package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	customMiddleware "github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/middleware"
)

// Request bodies here are small JSON documents (email, password, link id).
const maxRequestBody = "64K"

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	// Link URLs carry the link id, so pages must not leak it as a referrer.
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "no-referrer",
	}))
	s.echo.Use(middleware.CORSWithConfig(s.corsConfig()))
	s.echo.Use(middleware.BodyLimit(maxRequestBody))

	s.echo.Use(s.middleware.Metrics.CollectHTTPMetrics())
	s.echo.Use(s.middleware.Logging.RequestLogging())
}

// corsConfig allows the configured origins, or any origin when none are set.
func (s *Server) corsConfig() middleware.CORSConfig {
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders: []string{
			echo.HeaderXRequestID,
			echo.HeaderRetryAfter,
			customMiddleware.HeaderRateLimitLimit,
			customMiddleware.HeaderRateLimitRemaining,
			customMiddleware.HeaderRateLimitReset,
		},
	}
}

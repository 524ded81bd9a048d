package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	customMiddleware "github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	AdminRole      string
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

type ServerDeps struct {
	LinkService        ports.LinkService
	CredentialService  ports.CredentialService
	RateLimiterService ports.RateLimiterService
	TokenVerifier      ports.TokenVerifier
	HealthCheckers     []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	linkSvc        ports.LinkService
	credentialSvc  ports.CredentialService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = newIPExtractor(serverConfig.TrustedProxies)

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		linkSvc:        deps.LinkService,
		credentialSvc:  deps.CredentialService,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.TokenVerifier,
			deps.RateLimiterService,
			logger,
			serverConfig.AdminRole,
			httpMetrics(),
			"/metrics",
			"/health",
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

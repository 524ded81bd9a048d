package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/avatarctic/perfmgmt-saas/configs"
	"github.com/avatarctic/perfmgmt-saas/internal/application/services"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/db"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/email"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/health"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/memstore"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/redis"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/repositories"
	"github.com/avatarctic/perfmgmt-saas/internal/utils"
)

type stores struct {
	links       ports.LinkRepository
	accounts    ports.AccountRepository
	credentials ports.CredentialRepository
	checker     ports.HealthChecker
	close       func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{"store": cfg.Links.StoreDriver, "secret_scheme": cfg.Links.SecretScheme}).Info("Starting credential links service...")

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open stores:", err)
	}
	defer st.close()

	hcSlice := []ports.HealthChecker{st.checker}

	// Rate limiting needs Redis; the memory driver may run without it
	var rateLimiter ports.RateLimiterService
	redisClient, err := redis.NewRedisClient(context.Background(), &cfg.Redis)
	switch {
	case err == nil:
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")
		rateLimiter = services.NewRateLimiterService(
			repositories.NewRateLimitRedisRepository(redisClient, cfg.RateLimit.KeyPrefix),
			&services.RateLimiterConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				BurstMultiplier:   cfg.RateLimit.BurstMultiplier,
				Window:            cfg.RateLimit.Window,
			},
			logger,
		)
		hcSlice = append(hcSlice, health.NewRedisHealthChecker(redisClient))
	case cfg.Links.StoreDriver == config.StoreDriverMemory:
		logger.WithError(err).Warn("Redis unavailable; link requests are not rate limited")
	default:
		logger.Fatal("Failed to connect to Redis:", err)
	}

	encoder, err := utils.NewSecretEncoder(cfg.Links.SecretScheme)
	if err != nil {
		logger.Fatal("Failed to initialize secret encoder:", err)
	}
	if cfg.Links.SecretScheme == utils.SecretSchemeLegacy {
		logger.Warn("SECRET_SCHEME=legacy stores reversible passwords; use only while migrating old accounts")
	}

	emailConfig := &email.EmailConfig{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromEmail:      cfg.Email.FromEmail,
		FromName:       cfg.Email.FromName,
		CompanyName:    cfg.Email.CompanyName,
	}
	emailService, err := email.NewEmailService(emailConfig, email.NewSendGridSender(emailConfig, logger), logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service:", err)
	}

	linkService := services.NewLinkService(st.links, &services.LinkServiceConfig{ExpiryMinutes: cfg.Links.ExpiryMinutes, OnIssue: httpserver.RecordLinkIssued}, logger)
	credentialService := services.NewCredentialService(linkService, st.accounts, st.credentials, encoder, emailService, cfg.Email.BaseURL, logger)
	tokenService := services.NewAdminTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, logger)

	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		AdminRole:      cfg.JWT.AdminRole,
	}

	deps := httpserver.ServerDeps{
		LinkService:        linkService,
		CredentialService:  credentialService,
		RateLimiterService: rateLimiter,
		TokenVerifier:      tokenService,
		HealthCheckers:     hcSlice,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

func openStores(cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	if cfg.Links.StoreDriver == config.StoreDriverMemory {
		store := memstore.New()
		for _, entry := range cfg.Links.SeedAccounts {
			emailAddr, firstName, _ := strings.Cut(entry, "|")
			store.PutAccount(account.Account{Email: emailAddr, FirstName: firstName, IsActive: true})
		}
		logger.WithField("seeded_accounts", len(cfg.Links.SeedAccounts)).Warn("Using in-memory store; links and passwords are lost on restart")
		return &stores{
			links:       store,
			accounts:    store,
			credentials: store,
			checker:     health.NewMemoryHealthChecker(),
			close:       func() {},
		}, nil
	}

	database, err := db.NewDatabaseWithConfig(context.Background(), &cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to database successfully")

	if cfg.Server.MigrationsPath != "" {
		version, err := database.Migrate(cfg.Server.MigrationsPath)
		if err != nil {
			logger.WithError(err).Warn("Failed to run migrations")
		} else {
			logger.WithField("schema_version", version).Info("Database schema up to date")
		}
	}

	return &stores{
		links:       repositories.NewLinkRepository(database, logger),
		accounts:    repositories.NewAccountRepository(database, logger),
		credentials: repositories.NewCredentialRepository(database, logger),
		checker:     health.NewDBHealthChecker(database),
		close:       func() { _ = database.Close() },
	}, nil
}

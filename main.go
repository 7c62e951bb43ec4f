package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/auth"
	"github.com/omexus/aqua-sub000/pkg/config"
	"github.com/omexus/aqua-sub000/pkg/database"
	"github.com/omexus/aqua-sub000/pkg/handlers"
	"github.com/omexus/aqua-sub000/pkg/logging"
	"github.com/omexus/aqua-sub000/pkg/middleware"
	"github.com/omexus/aqua-sub000/pkg/repositories"
	"github.com/omexus/aqua-sub000/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("email_enabled", cfg.Email.Enabled()))

	ctx := context.Background()

	// Migrations run over database/sql; the service itself uses pgx pools.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, "migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MinConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories share the single key-space entity store.
	store := repositories.NewPostgresEntityStore()
	condoRepo := repositories.NewCondoRepository(store)
	unitRepo := repositories.NewUnitRepository(store)
	managerRepo := repositories.NewManagerRepository(store)
	periodRepo := repositories.NewPeriodRepository(store)
	statementRepo := repositories.NewStatementRepository(store)
	allocationRepo := repositories.NewAllocationRepository(store)

	condoService := services.NewCondoService(condoRepo, unitRepo, managerRepo, logger)
	statementService := services.NewStatementService(statementRepo, periodRepo, condoRepo, logger)
	allocationService := services.NewAllocationService(allocationRepo, statementRepo, unitRepo, logger)

	var notificationService services.NotificationService
	if cfg.Email.Enabled() {
		sender := services.NewSendGridSender(cfg.Email.APIKey, cfg.Email.Sandbox)
		notificationService = services.NewNotificationService(sender, cfg.Email.FromName, cfg.Email.FromAddress, logger)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, statement notices disabled")
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	condoMiddleware := handlers.TenantMiddleware(database.WithCondoContext(db, logger))
	unscopedMiddleware := handlers.TenantMiddleware(database.WithUnscopedContext(db, logger))

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	condoHandler := handlers.NewCondoHandler(condoService, logger)
	condoHandler.RegisterRoutes(mux, authMiddleware, condoMiddleware, unscopedMiddleware)

	managerHandler := handlers.NewManagerHandler(condoService, logger)
	managerHandler.RegisterRoutes(mux, authMiddleware, unscopedMiddleware)

	unitHandler := handlers.NewUnitHandler(condoService, logger)
	unitHandler.RegisterRoutes(mux, authMiddleware, condoMiddleware)

	statementHandler := handlers.NewStatementHandler(statementService, condoService, logger)
	statementHandler.RegisterRoutes(mux, authMiddleware, condoMiddleware)

	allocationHandler := handlers.NewAllocationHandler(allocationService, statementService, condoService, notificationService, logger)
	allocationHandler.RegisterRoutes(mux, authMiddleware, condoMiddleware)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting aqua-sub000",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sonrisa-dental/sonrisa-api/internal/config"
	v1 "github.com/sonrisa-dental/sonrisa-api/internal/handler/v1"
	"github.com/sonrisa-dental/sonrisa-api/internal/repository/postgres"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
	"github.com/sonrisa-dental/sonrisa-api/pkg/auth"
	"github.com/sonrisa-dental/sonrisa-api/pkg/database"
	"github.com/sonrisa-dental/sonrisa-api/pkg/logger"
	"github.com/sonrisa-dental/sonrisa-api/pkg/metrics"
	"github.com/sonrisa-dental/sonrisa-api/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting sonrisa-api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	collector := metrics.NewCollector("sonrisa")

	userRepo := postgres.NewUserRepository(db)
	citaRepo := postgres.NewCitaRepository(db)
	historialRepo := postgres.NewHistorialRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log)
	auditSvc.OnDrop(collector.AuditBufferDropped.Inc)

	jwtManager := auth.NewJWTManager(cfg.JWT)

	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	directorySvc := service.NewDirectoryService(userRepo, auditSvc, log)
	citaSvc := service.NewCitaService(citaRepo, userRepo, auditSvc, collector, log)
	historialSvc := service.NewHistorialService(historialRepo, userRepo, auditSvc, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:       cfg,
		Log:          log,
		Collector:    collector,
		JWTManager:   jwtManager,
		AuthSvc:      authSvc,
		DirectorySvc: directorySvc,
		CitaSvc:      citaSvc,
		HistorialSvc: historialSvc,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}

	// Drain the audit buffer after the server stops accepting requests.
	auditSvc.Shutdown()

	log.Info("shutdown complete")
	return nil
}

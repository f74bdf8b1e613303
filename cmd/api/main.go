package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/adapters/storage"
	"collectflow_backend/internal/arrangements/handler"
	arrangementrepo "collectflow_backend/internal/arrangements/repository"
	"collectflow_backend/internal/campaigns"
	"collectflow_backend/internal/consumers"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/events"
	apphttp "collectflow_backend/internal/http"
	"collectflow_backend/internal/http/router"
	"collectflow_backend/internal/sequences"
	"collectflow_backend/internal/sms"
	"collectflow_backend/internal/tenants"
	"collectflow_backend/platform/config"
	"collectflow_backend/platform/db"
	"collectflow_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "port", cfg.HTTPPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(cfg.DatabaseURL)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err.Error())
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err.Error())
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules.
	eventBus := events.NewBus(log)

	emailSender := email.NewSMTPSender(cfg, log)
	smsSender := sms.NewLogSender(log)

	// Object storage for tenant logos. Optional: without it, branding
	// renders without a logo.
	var storageSvc *storage.Service
	if cfg.MinioEndpoint != "" {
		storageSvc, err = storage.New(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err.Error())
			panic("failed to initialize storage service: " + err.Error())
		}
		log.Info("storage service initialized", "bucket", cfg.MinioBucket)
	}

	// Domain modules (composition root).
	consumersModule := consumers.New(pool, eventBus, log)
	tenantsModule := tenants.New(pool, storageSvc, log)
	arrangementRepo := arrangementrepo.New(pool)
	arrangementHandler := handler.New(arrangementRepo, log)

	campaignsModule := campaigns.New(pool, consumersModule.Repo, tenantsModule.Repo,
		arrangementRepo, tenantsModule.Service, emailSender, smsSender, log)

	sequencesModule := sequences.New(pool, eventBus, consumersModule.Repo,
		tenantsModule.Repo, arrangementRepo, tenantsModule.Service,
		emailSender, smsSender, log)
	sequencesModule.RegisterHandlers(eventBus)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			consumersModule,
			tenantsModule,
			campaignsModule,
			sequencesModule,
			apphttp.NewModule("arrangements", func(rc *apphttp.RouterContext) {
				arrangementHandler.RegisterRoutes(rc.Protected)
			}),
		},
	}

	engine := router.New(app)
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err.Error())
			stop()
		}
	}()
	log.Info("server listening", "port", cfg.HTTPPort)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}

	// Let in-flight event handlers finish before the pool closes.
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err.Error())
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return errors.New(name + ": " + lastErr.Error())
}

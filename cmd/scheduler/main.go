package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	arrangementrepo "collectflow_backend/internal/arrangements/repository"
	"collectflow_backend/internal/consumers"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/events"
	"collectflow_backend/internal/scheduler"
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
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewBus(log)

	emailSender := email.NewSMTPSender(cfg, log)
	smsSender := sms.NewLogSender(log)

	// Worker-side delivery wiring (no HTTP handlers required).
	consumersModule := consumers.New(pool, eventBus, log)
	tenantsModule := tenants.New(pool, nil, log)
	arrangementRepo := arrangementrepo.New(pool)

	sequencesModule := sequences.New(pool, eventBus, consumersModule.Repo,
		tenantsModule.Repo, arrangementRepo, tenantsModule.Service,
		emailSender, smsSender, log)
	sequencesModule.RegisterHandlers(eventBus)

	dispatcher := scheduler.NewEnrollmentDispatcher(cfg, pool, log)
	defer func() { _ = dispatcher.Close() }()

	worker := scheduler.NewWorker(cfg, eventBus, log)

	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(runCtx)
		return nil
	})
	g.Go(func() error {
		worker.Run(runCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err.Error())
	}
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

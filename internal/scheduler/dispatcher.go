package scheduler

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/sequences/repository"
	"collectflow_backend/platform/config"
	"collectflow_backend/platform/logger"
)

// EnrollmentDispatcher polls for due enrollments and enqueues one delivery
// task each. Claiming flips dispatch_status so concurrent dispatcher
// instances never enqueue the same enrollment twice.
type EnrollmentDispatcher struct {
	client   *Client
	repo     *repository.Repository
	interval time.Duration
	batch    int
	log      *logger.Logger
}

func NewEnrollmentDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) *EnrollmentDispatcher {
	interval := cfg.GetOutboxPollInterval()
	if interval <= 0 {
		interval = 2 * time.Second
	}
	batch := cfg.GetOutboxBatchSize()
	if batch < 1 {
		batch = 100
	}

	return &EnrollmentDispatcher{
		client:   NewClient(cfg),
		repo:     repository.New(pool),
		interval: interval,
		batch:    batch,
		log:      log,
	}
}

func (d *EnrollmentDispatcher) Close() error {
	return d.client.Close()
}

func (d *EnrollmentDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		d.dispatchOnce(ctx)
	}
}

func (d *EnrollmentDispatcher) dispatchOnce(ctx context.Context) {
	claimed, err := d.repo.ClaimDueEnrollments(ctx, time.Now().UTC(), d.batch)
	if err != nil {
		d.log.Warn("enrollment claim failed", "error", err.Error())
		return
	}

	for _, e := range claimed {
		err := d.client.ScheduleSequenceMessage(ctx, SequenceMessageDuePayload{
			EnrollmentID: e.ID.String(),
			TenantID:     e.TenantID.String(),
		}, e.NextMessageAt)
		if err != nil {
			// Put the enrollment back so the next tick retries the enqueue.
			d.log.Warn("task enqueue failed",
				"enrollment_id", e.ID.String(),
				"error", err.Error(),
			)
			if err := d.repo.ReopenEnrollment(ctx, e.ID); err != nil {
				d.log.Error("enrollment reopen failed",
					"enrollment_id", e.ID.String(),
					"error", err.Error(),
				)
			}
		}
	}
}

package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"collectflow_backend/internal/events"
	"collectflow_backend/platform/config"
	"collectflow_backend/platform/logger"
)

// Worker consumes due-message tasks and republishes them on the event bus,
// where the enrollment engine's subscription picks them up.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bus events.Bus, log *logger.Logger) *Worker {
	concurrency := cfg.GetWorkerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(redisClientOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{server: server, mux: mux, bus: bus, log: log}
	mux.HandleFunc(TaskSequenceMessageDue, w.handleSequenceMessageDue)
	return w
}

func (w *Worker) handleSequenceMessageDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSequenceMessageDuePayload(task)
	if err != nil {
		return err
	}

	enrollmentID, err := uuid.Parse(payload.EnrollmentID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	return w.bus.PublishSync(ctx, events.SequenceMessageDue{
		BaseEvent:    events.NewBase(),
		TenantID:     tenantID,
		EnrollmentID: enrollmentID,
	})
}

func (w *Worker) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err.Error())
	}
}

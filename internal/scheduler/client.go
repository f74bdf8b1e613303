package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"collectflow_backend/platform/config"
)

const queueName = "sequences"

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.SchedulerConfig) *Client {
	return &Client{client: asynq.NewClient(redisClientOpt(cfg))}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleSequenceMessage enqueues one due-message task to run at runAt.
// MaxRetry is zero: a failed delivery is not retried, the enrollment stays
// claimed until an operator intervenes.
func (c *Client) ScheduleSequenceMessage(ctx context.Context, payload SequenceMessageDuePayload, runAt time.Time) error {
	task, err := NewSequenceMessageDueTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(runAt), asynq.Queue(queueName), asynq.MaxRetry(0))
	return err
}

// redisClientOpt accepts either a plain host:port or a full redis:// URL
// (managed Redis providers hand out the latter, TLS config included).
func redisClientOpt(cfg config.SchedulerConfig) asynq.RedisClientOpt {
	addr := cfg.GetRedisAddr()
	if strings.Contains(addr, "://") {
		if opt, err := redis.ParseURL(addr); err == nil {
			return asynq.RedisClientOpt{
				Addr:      opt.Addr,
				Password:  opt.Password,
				DB:        opt.DB,
				TLSConfig: opt.TLSConfig,
			}
		}
	}
	return asynq.RedisClientOpt{
		Addr:     addr,
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	}
}

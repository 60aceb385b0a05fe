// internal/jobs/notifier.go
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/models"
)

// Unsubscribe tears down a standing watch. Calling it more than once is safe
// and a no-op after the first call.
type Unsubscribe func()

// Watcher lets a client observe a single job, either by point-in-time
// snapshot or by standing subscription. Snapshot returns (nil, nil) when no
// row matches; absence is not an error.
type Watcher interface {
	Snapshot(ctx context.Context, jobID string) (*models.Job, error)
	Subscribe(ctx context.Context, jobID string, onUpdate func(models.Job)) (Unsubscribe, error)
}

// Publisher announces a job's new state after a committed transition.
type Publisher interface {
	PublishUpdate(ctx context.Context, job *models.Job) error
}

// NopPublisher drops updates. Used when no Redis is configured; clients then
// fall back to the polling watcher.
type NopPublisher struct{}

func (NopPublisher) PublishUpdate(context.Context, *models.Job) error { return nil }

func updateChannel(jobID string) string {
	return "analysis:job:" + jobID
}

// RedisNotifier implements Publisher and Watcher over Redis pub/sub, one
// channel per job id. Updates are delivered in publish order; concurrent
// subscriptions to the same job are independent and each receives every
// update.
type RedisNotifier struct {
	rdb    *redis.Client
	store  Store
	logger logger.Logger
}

func NewRedisNotifier(rdb *redis.Client, store Store, log logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb:    rdb,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (n *RedisNotifier) PublishUpdate(ctx context.Context, job *models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job update: %w", err)
	}
	if err := n.rdb.Publish(ctx, updateChannel(job.ID), payload).Err(); err != nil {
		return fmt.Errorf("publish job update: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Snapshot(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := n.store.Get(ctx, jobID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return job, err
}

func (n *RedisNotifier) Subscribe(ctx context.Context, jobID string, onUpdate func(models.Job)) (Unsubscribe, error) {
	pubsub := n.rdb.Subscribe(ctx, updateChannel(jobID))

	// Force the subscription to be established before returning, so no
	// update published after Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to job updates: %w", err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var job models.Job
			if err := json.Unmarshal([]byte(msg.Payload), &job); err != nil {
				n.logger.Warn("dropping malformed job update", map[string]interface{}{
					"jobId": jobID,
					"error": err.Error(),
				})
				continue
			}
			onUpdate(job)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				n.logger.Warn("pubsub close failed", map[string]interface{}{
					"jobId": jobID,
					"error": err.Error(),
				})
			}
		})
	}, nil
}

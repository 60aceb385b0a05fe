// internal/jobs/poller.go
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/models"
)

// PollWatcher implements Watcher by diffing store snapshots on a fixed
// interval. It is the transport-agnostic fallback when no pub/sub channel is
// available; the delivery contract is the same as the Redis notifier's,
// except that intermediate states shorter than one interval can be skipped.
type PollWatcher struct {
	store    Store
	interval time.Duration
	logger   logger.Logger
}

func NewPollWatcher(store Store, interval time.Duration, log logger.Logger) *PollWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PollWatcher{
		store:    store,
		interval: interval,
		logger:   log.WithFields(map[string]interface{}{"component": "pollwatcher"}),
	}
}

func (w *PollWatcher) Snapshot(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := w.store.Get(ctx, jobID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return job, err
}

func (w *PollWatcher) Subscribe(ctx context.Context, jobID string, onUpdate func(models.Job)) (Unsubscribe, error) {
	stop := make(chan struct{})

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var lastStatus models.JobStatus
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			job, err := w.store.Get(ctx, jobID)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					w.logger.Warn("poll failed", map[string]interface{}{
						"jobId": jobID,
						"error": err.Error(),
					})
				}
				continue
			}

			if job.Status != lastStatus {
				lastStatus = job.Status
				onUpdate(*job)
			}
			if job.Status.Terminal() {
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}, nil
}

// internal/client/flow.go
package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"hr-analysis/internal/analysis"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/jobs"
	"hr-analysis/internal/models"
)

// State is one stage of the submission flow.
type State string

const (
	StateInput      State = "input"
	StateConnecting State = "connecting"
	StateExtracting State = "extracting"
	StateAnalyzing  State = "analyzing"
	StateComplete   State = "complete"
)

// Submitter is the submission entry point the flow drives. The in-process
// SubmissionService and the HTTP APIClient both satisfy it.
type Submitter interface {
	Submit(ctx context.Context, req *analysis.SubmitRequest) (*analysis.SubmitResponse, error)
}

// Delays are the presentation pauses between early stages. Zero values run
// the flow without pacing.
type Delays struct {
	Connecting time.Duration
	Extracting time.Duration
}

// Flow walks one submission through
// input -> connecting -> extracting -> analyzing -> complete, falling back to
// input with the error surfaced when the job fails at any point. Each Flow
// instance drives a single submission.
type Flow struct {
	submitter Submitter
	watcher   jobs.Watcher
	delays    Delays
	logger    logger.Logger

	// OnStateChange is invoked on every stage entry, including the fallback
	// to input. Optional.
	OnStateChange func(State)
	// OnComplete receives the final results exactly once. Optional.
	OnComplete func(*models.AnalysisResults)
	// OnError receives the surfaced failure when the flow falls back to
	// input. Optional.
	OnError func(error)

	mu    sync.Mutex
	state State
	done  chan struct{}
}

func NewFlow(submitter Submitter, watcher jobs.Watcher, delays Delays, log logger.Logger) *Flow {
	return &Flow{
		submitter: submitter,
		watcher:   watcher,
		delays:    delays,
		logger:    log.WithFields(map[string]interface{}{"component": "flow"}),
		state:     StateInput,
		done:      make(chan struct{}),
	}
}

// State returns the current stage.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done is closed when the flow reaches complete or falls back to input.
func (f *Flow) Done() <-chan struct{} {
	return f.done
}

// Run drives the whole flow for one URL and blocks until it settles. An empty
// URL fails synchronously without leaving input.
func (f *Flow) Run(ctx context.Context, req *analysis.SubmitRequest) error {
	if strings.TrimSpace(req.HCMURL) == "" {
		err := errEmptyURL
		f.failBack(err)
		return err
	}

	f.enter(StateConnecting)
	if err := f.pause(ctx, f.delays.Connecting); err != nil {
		f.failBack(err)
		return err
	}

	f.enter(StateExtracting)
	if err := f.pause(ctx, f.delays.Extracting); err != nil {
		f.failBack(err)
		return err
	}

	f.enter(StateAnalyzing)
	resp, err := f.submitter.Submit(ctx, req)
	if err != nil {
		f.failBack(err)
		return err
	}

	if resp.Results != nil {
		f.complete(resp.Results)
		return nil
	}

	return f.await(ctx, resp.JobID)
}

// await holds in analyzing until the subscribed job reaches a terminal state.
// Non-terminal updates keep the flow where it is, so only terminal ones are
// forwarded; a burst of intermediate updates can never crowd out the terminal
// delivery.
func (f *Flow) await(ctx context.Context, jobID string) error {
	updates := make(chan models.Job, 1)
	unsubscribe, err := f.watcher.Subscribe(ctx, jobID, func(job models.Job) {
		if !job.Status.Terminal() {
			return
		}
		select {
		case updates <- job:
		default:
		}
	})
	if err != nil {
		f.failBack(err)
		return err
	}
	defer unsubscribe()

	// A terminal transition committed before the subscription attached would
	// otherwise never be delivered.
	if snapshot, snapErr := f.watcher.Snapshot(ctx, jobID); snapErr == nil && snapshot != nil && snapshot.Status.Terminal() {
		return f.settle(snapshot)
	}

	select {
	case <-ctx.Done():
		f.failBack(ctx.Err())
		return ctx.Err()
	case job := <-updates:
		return f.settle(&job)
	}
}

func (f *Flow) settle(job *models.Job) error {
	if job.Status == models.StatusCompleted {
		f.complete(job.Results)
		return nil
	}
	err := &JobFailedError{JobID: job.ID, Message: job.ErrorMessage}
	f.failBack(err)
	return err
}

func (f *Flow) enter(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()

	f.logger.Debug("flow state", map[string]interface{}{"state": string(s)})
	if f.OnStateChange != nil {
		f.OnStateChange(s)
	}
}

func (f *Flow) complete(results *models.AnalysisResults) {
	f.enter(StateComplete)
	if f.OnComplete != nil {
		f.OnComplete(results)
	}
	close(f.done)
}

func (f *Flow) failBack(err error) {
	f.enter(StateInput)
	if f.OnError != nil {
		f.OnError(err)
	}
	close(f.done)
}

func (f *Flow) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

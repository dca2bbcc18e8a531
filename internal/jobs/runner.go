package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/metrics"
	"github.com/plateops/ops-backend/pkg/types"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 25
	defaultConcurrency  = 4
	maxErrorMessageLen  = 2000
)

// Queue is the slice of the job repository the runner drives.
type Queue interface {
	ListPending(ctx context.Context, limit int) ([]models.Job, error)
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, result types.RawJSON, now time.Time) error
	Fail(ctx context.Context, id uuid.UUID, message string, now time.Time) error
}

// RunnerParams configure the job runner.
type RunnerParams struct {
	Logger       *logger.Logger
	Registry     *Registry
	Queue        Queue
	Metrics      *metrics.JobMetrics
	Events       eventbus.Emitter
	PollInterval time.Duration
	BatchSize    int
	Concurrency  int
	Now          func() time.Time
}

// Runner polls the jobs table and executes claimed jobs through the registry.
type Runner struct {
	logg         *logger.Logger
	registry     *Registry
	queue        Queue
	metrics      *metrics.JobMetrics
	events       eventbus.Emitter
	pollInterval time.Duration
	batchSize    int
	concurrency  int
	now          func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// TickResult summarizes one poll.
type TickResult struct {
	Listed    int
	Claimed   int
	Completed int
	Failed    int
}

func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("queue required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		logg:         params.Logger,
		registry:     registry,
		queue:        params.Queue,
		metrics:      params.Metrics,
		events:       params.Events,
		pollInterval: interval,
		batchSize:    batch,
		concurrency:  concurrency,
		now:          now,
	}, nil
}

// Start launches the poll loop. It returns immediately; call Stop to end it.
func (r *Runner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return fmt.Errorf("runner already stopped")
	}
	if r.done != nil {
		return fmt.Errorf("runner already started")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(loopCtx, r.done)
	return nil
}

// Stop cancels polling and waits for the loop, including any in-flight tick,
// to return or for ctx to expire. No tick starts after Stop returns.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	r.logg.Info(r.logg.WithField(ctx, "poll_interval_ms", r.pollInterval.Milliseconds()), "job runner started")

	r.tickAndLog(ctx)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logg.Info(context.WithoutCancel(ctx), "job runner stopped")
			return
		case <-ticker.C:
			// the select picks randomly when both are ready
			if ctx.Err() != nil {
				continue
			}
			r.tickAndLog(ctx)
		}
	}
}

func (r *Runner) tickAndLog(ctx context.Context) {
	if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
		r.logg.Error(ctx, "job poll failed", err)
	}
}

// Tick runs one poll: list pending jobs, claim each and execute the claimed
// ones with bounded concurrency. It returns once every claimed job is terminal.
func (r *Runner) Tick(ctx context.Context) (TickResult, error) {
	var result TickResult
	pending, err := r.queue.ListPending(ctx, r.batchSize)
	if err != nil {
		return result, fmt.Errorf("list pending jobs: %w", err)
	}
	result.Listed = len(pending)
	if len(pending) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, job := range pending {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			claimed, status := r.process(ctx, job)
			mu.Lock()
			defer mu.Unlock()
			if claimed {
				result.Claimed++
			}
			switch status {
			case enums.JobStatusCompleted:
				result.Completed++
			case enums.JobStatusFailed:
				result.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

// process claims job and, when the claim wins, executes it to a terminal state.
func (r *Runner) process(ctx context.Context, job models.Job) (bool, enums.JobStatus) {
	jobCtx := r.logg.WithFields(ctx, map[string]any{
		"job_id":   job.ID.String(),
		"job_type": job.Type.String(),
		"event":    "jobs.run",
	})
	claimed, err := r.queue.Claim(jobCtx, job.ID, r.now().UTC())
	if err != nil {
		r.logg.Error(jobCtx, "job claim failed", err)
		return false, ""
	}
	if !claimed {
		r.metrics.IncClaimConflict(job.Type.String())
		r.logg.Debug(jobCtx, "job already claimed")
		return false, ""
	}
	job.Status = enums.JobStatusRunning

	// terminal writes must land even when Stop cancels the poll context
	persistCtx := context.WithoutCancel(jobCtx)

	handler, ok := r.registry.Lookup(job.Type)
	if !ok {
		return true, r.failStatus(persistCtx, job, fmt.Sprintf("no handler registered for job type %q", job.Type))
	}

	r.logg.Info(jobCtx, "job start")
	start := time.Now()
	output, runErr := r.invoke(jobCtx, handler, job)
	duration := time.Since(start)
	r.metrics.ObserveDuration(job.Type.String(), duration)
	persistCtx = r.logg.WithField(persistCtx, "duration_ms", duration.Milliseconds())

	if runErr != nil {
		return true, r.failStatus(persistCtx, job, runErr.Error())
	}
	encoded, err := encodeResult(output)
	if err != nil {
		return true, r.failStatus(persistCtx, job, err.Error())
	}
	if err := r.queue.Complete(persistCtx, job.ID, encoded, r.now().UTC()); err != nil {
		r.metrics.IncPersistFailure(job.Type.String())
		r.logg.Error(persistCtx, "job completion not recorded", err)
		return true, r.failStatus(persistCtx, job, fmt.Sprintf("record completion: %v", err))
	}
	r.metrics.IncSuccess(job.Type.String())
	r.logg.Info(persistCtx, "job completed")
	return true, enums.JobStatusCompleted
}

func (r *Runner) failStatus(ctx context.Context, job models.Job, message string) enums.JobStatus {
	if r.fail(ctx, job, message) {
		return enums.JobStatusFailed
	}
	return ""
}

// fail records the failure and reports whether the job reached the failed state.
func (r *Runner) fail(ctx context.Context, job models.Job, message string) bool {
	message = truncateMessage(message, maxErrorMessageLen)
	r.metrics.IncFailure(job.Type.String())
	ctx = r.logg.WithField(ctx, "error_message", message)
	if err := r.queue.Fail(ctx, job.ID, message, r.now().UTC()); err != nil {
		r.metrics.IncPersistFailure(job.Type.String())
		r.logg.Error(ctx, "job failure not recorded", err)
		return false
	}
	r.logg.Warn(ctx, "job failed")
	r.emitFailure(ctx, job, message)
	return true
}

// truncateMessage cuts message to at most limit bytes without splitting a rune.
func truncateMessage(message string, limit int) string {
	if len(message) <= limit {
		return message
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}

func (r *Runner) emitFailure(ctx context.Context, job models.Job, message string) {
	if r.events == nil || job.RestaurantID == nil || *job.RestaurantID == "" {
		return
	}
	event, err := eventbus.NewEvent(*job.RestaurantID, enums.EventJobFailed, eventbus.JobFailedPayload{
		JobID:   job.ID.String(),
		JobType: job.Type.String(),
		Error:   message,
	}, eventbus.WithActor(eventbus.Actor{Kind: enums.ActorSystem, ID: "job-runner"}))
	if err != nil {
		r.logg.Error(ctx, "build job.failed event", err)
		return
	}
	if err := r.events.Emit(ctx, event); err != nil {
		r.logg.Error(ctx, "emit job.failed event", err)
	}
}

func (r *Runner) invoke(ctx context.Context, handler HandlerFunc, job models.Job) (output any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job handler panicked: %v", rec)
			r.logg.Error(r.logg.WithField(ctx, "stack", string(debug.Stack())), "job handler panicked", err)
		}
	}()
	return handler(ctx, job)
}

func encodeResult(output any) (types.RawJSON, error) {
	switch v := output.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fmt.Errorf("job result is not valid json")
		}
		return types.RawJSON(v), nil
	case types.RawJSON:
		return v, nil
	}
	raw, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("encode job result: %w", err)
	}
	return types.RawJSON(raw), nil
}

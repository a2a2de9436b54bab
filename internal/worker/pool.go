package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"

	// statusRejected only shows up in metrics, rejected jobs are stored as failed
	statusRejected Status = "rejected"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
	ErrJobNotFound = errors.New("job not found")
)

type JobState struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type StateStore interface {
	Put(ctx context.Context, state JobState) error
	Get(ctx context.Context, id string) (*JobState, error)
}

type job struct {
	state JobState
	run   func(context.Context) error
}

// Pool runs submitted jobs on a fixed number of goroutines behind a bounded queue.
// Job state transitions are recorded in the StateStore.
type Pool struct {
	size       int
	jobTimeout time.Duration
	jobs       chan job
	store      StateStore
	logger     *slog.Logger
	meter      metric.MeterProvider
	finished   metric.Int64Counter

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type Option func(*Pool)

// WithMeterProvider records job outcomes on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Pool) {
		p.meter = mp
	}
}

func NewPool(size, queueSize int, jobTimeout time.Duration, store StateStore, logger *slog.Logger, opts ...Option) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		size:       size,
		jobTimeout: jobTimeout,
		jobs:       make(chan job, queueSize),
		store:      store,
		logger:     logger,
		meter:      otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(p)
	}

	finished, err := p.meter.Meter("github.com/ravenent/show-booking-system/internal/worker").Int64Counter("worker.jobs",
		metric.WithDescription("Jobs that left the pool, by kind and outcome"),
		metric.WithUnit("{job}"))
	if err != nil {
		logger.Warn("worker metrics disabled", "error", err)
		finished = noop.Int64Counter{}
	}
	p.finished = finished

	return p
}

func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)

		go func() {
			defer p.wg.Done()

			for j := range p.jobs {
				p.execute(j)
			}
		}()
	}
}

// Submit enqueues fn without blocking and returns the id of the new job.
func (p *Pool) Submit(ctx context.Context, name string, fn func(context.Context) error) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return "", ErrPoolStopped
	}

	j := job{
		state: JobState{
			ID:        uuid.NewString(),
			Name:      name,
			Status:    StatusQueued,
			UpdatedAt: time.Now(),
		},
		run: fn,
	}

	err := p.store.Put(ctx, j.state)
	if err != nil {
		return "", fmt.Errorf("record job state: %w", err)
	}

	select {
	case p.jobs <- j:
		return j.state.ID, nil
	default:
		j.state.Status = StatusFailed
		j.state.Error = ErrQueueFull.Error()
		j.state.UpdatedAt = time.Now()
		p.record(ctx, j.state.Name, statusRejected)
		p.putState(j.state)

		return "", ErrQueueFull
	}
}

func (p *Pool) Status(ctx context.Context, id string) (*JobState, error) {
	return p.store.Get(ctx, id)
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) execute(j job) {
	logger := p.logger.With("job_id", j.state.ID, "job", j.state.Name)

	j.state.Status = StatusRunning
	j.state.UpdatedAt = time.Now()
	p.putState(j.state)

	ctx := context.Background()
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	err := p.runSafely(ctx, j.run)

	j.state.UpdatedAt = time.Now()
	if err != nil {
		j.state.Status = StatusFailed
		j.state.Error = err.Error()
		logger.Error("job failed", "error", err)
	} else {
		j.state.Status = StatusSucceeded
		logger.Info("job succeeded")
	}

	p.record(ctx, j.state.Name, j.state.Status)
	p.putState(j.state)
}

// record counts a finished job. Names look like "ticket-delivery:RAVEN00042",
// only the part before the colon is used so the metric stays low-cardinality.
func (p *Pool) record(ctx context.Context, name string, status Status) {
	kind, _, _ := strings.Cut(name, ":")

	p.finished.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("job", kind),
		attribute.String("status", string(status)),
	))
}

func (p *Pool) runSafely(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn(ctx)
}

func (p *Pool) putState(state JobState) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := p.store.Put(ctx, state)
	if err != nil {
		p.logger.Error("failed to record job state", "job_id", state.ID, "status", state.Status, "error", err)
	}
}

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type PoolTestSuite struct {
	suite.Suite
	store *MemoryStateStore
	pool  *Pool
}

func (s *PoolTestSuite) SetupTest() {
	s.store = NewMemoryStateStore()
	s.pool = NewPool(2, 4, time.Second, s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.pool.Start()
}

func (s *PoolTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.pool.Shutdown(ctx)
}

func TestPoolSuite(t *testing.T) {
	suite.Run(t, new(PoolTestSuite))
}

func (s *PoolTestSuite) waitFor(id string, want Status) *JobState {
	var state *JobState

	s.Require().Eventually(func() bool {
		got, err := s.pool.Status(context.Background(), id)
		if err != nil {
			return false
		}
		state = got
		return got.Status == want
	}, 2*time.Second, 10*time.Millisecond)

	return state
}

func (s *PoolTestSuite) TestJobOutcomes() {
	tests := []struct {
		name      string
		fn        func(context.Context) error
		want      Status
		wantError string
	}{
		{
			name: "success",
			fn:   func(context.Context) error { return nil },
			want: StatusSucceeded,
		},
		{
			name:      "failure",
			fn:        func(context.Context) error { return errors.New("smtp unavailable") },
			want:      StatusFailed,
			wantError: "smtp unavailable",
		},
		{
			name:      "panic is contained",
			fn:        func(context.Context) error { panic("boom") },
			want:      StatusFailed,
			wantError: "panic: boom",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			id, err := s.pool.Submit(context.Background(), "deliver_tickets", tt.fn)
			s.Require().NoError(err)
			s.NotEmpty(id)

			state := s.waitFor(id, tt.want)

			s.Equal("deliver_tickets", state.Name)
			s.Equal(tt.wantError, state.Error)
		})
	}
}

func (s *PoolTestSuite) TestStatusOfUnknownJob() {
	_, err := s.pool.Status(context.Background(), "missing")
	s.ErrorIs(err, ErrJobNotFound)
}

func (s *PoolTestSuite) TestSubmitAfterShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.Require().NoError(s.pool.Shutdown(ctx))

	_, err := s.pool.Submit(context.Background(), "late", func(context.Context) error { return nil })
	s.ErrorIs(err, ErrPoolStopped)
}

func TestPool_QueueFull(t *testing.T) {
	store := NewMemoryStateStore()
	pool := NewPool(1, 1, time.Second, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pool.Start()

	release := make(chan struct{})
	started := make(chan struct{})

	_, err := pool.Submit(context.Background(), "blocker", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	_, err = pool.Submit(context.Background(), "queued", func(context.Context) error { return nil })
	require.NoError(t, err)

	_, err = pool.Submit(context.Background(), "overflow", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
}

func TestPool_JobTimeout(t *testing.T) {
	store := NewMemoryStateStore()
	pool := NewPool(1, 1, 20*time.Millisecond, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pool.Start()

	id, err := pool.Submit(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		state, err := pool.Status(context.Background(), id)
		return err == nil && state.Status == StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
}

func TestPool_RecordsJobOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	pool := NewPool(1, 1, time.Second, NewMemoryStateStore(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithMeterProvider(provider))
	pool.Start()

	release := make(chan struct{})
	started := make(chan struct{})

	_, err := pool.Submit(context.Background(), "ticket-delivery:RAVEN00001", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	_, err = pool.Submit(context.Background(), "ticket-delivery:RAVEN00002", func(context.Context) error {
		return errors.New("smtp unavailable")
	})
	require.NoError(t, err)

	_, err = pool.Submit(context.Background(), "ticket-delivery:RAVEN00003", func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrQueueFull)

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	jobs := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "worker.jobs", jobs.Name)

	sum, ok := jobs.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	got := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		kind, _ := dp.Attributes.Value("job")
		status, _ := dp.Attributes.Value("status")
		got[kind.AsString()+"/"+status.AsString()] = dp.Value
	}

	assert.Equal(t, map[string]int64{
		"ticket-delivery/succeeded": 1,
		"ticket-delivery/failed":    1,
		"ticket-delivery/rejected":  1,
	}, got)
}

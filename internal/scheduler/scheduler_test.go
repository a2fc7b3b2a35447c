package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_metrics/internal/domain"
)

type countingPuller struct {
	calls    atomic.Int32
	err      error
	deadline atomic.Bool
}

func (p *countingPuller) Pull(ctx context.Context) (*domain.PullStats, error) {
	p.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		p.deadline.Store(true)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &domain.PullStats{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_PullsImmediatelyAndOnTick(t *testing.T) {
	puller := &countingPuller{}
	s := NewScheduler(puller, 10*time.Millisecond, time.Second, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, puller.calls.Load(), int32(2))
	assert.True(t, puller.deadline.Load())
}

func TestScheduler_KeepsRunningAfterFailure(t *testing.T) {
	puller := &countingPuller{err: errors.New("feed unavailable")}
	s := NewScheduler(puller, 5*time.Millisecond, 0, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	_ = s.Start(ctx)

	assert.GreaterOrEqual(t, puller.calls.Load(), int32(2))
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	puller := &countingPuller{}
	s := NewScheduler(puller, time.Hour, time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return puller.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

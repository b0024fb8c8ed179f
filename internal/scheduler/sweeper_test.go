package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artwall/artwall/internal/domain"
)

// sweepCounter implements service.StoryService for sweep counting.
type sweepCounter struct {
	sweeps atomic.Int64
	err    error
}

func (s *sweepCounter) Create(context.Context, string, *domain.CreateStoryRequest, string, string, io.Reader, int64) (*domain.Story, error) {
	return nil, nil
}

func (s *sweepCounter) Feed(context.Context, string) ([]*domain.Story, error) {
	return nil, nil
}

func (s *sweepCounter) SweepExpired(context.Context) (int, error) {
	s.sweeps.Add(1)
	return 1, s.err
}

func TestSweeperRunsImmediatelyAndOnTicks(t *testing.T) {
	svc := &sweepCounter{}
	sweeper := NewStorySweeper(svc, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for svc.sweeps.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline", svc.sweeps.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweeperKeepsRunningAfterError(t *testing.T) {
	svc := &sweepCounter{err: errors.New("db down")}
	sweeper := NewStorySweeper(svc, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	deadline := time.After(2 * time.Second)
	for svc.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeper stopped after error: %d sweeps", svc.sweeps.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

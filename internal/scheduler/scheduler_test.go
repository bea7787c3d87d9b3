package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"weddingtimeline/internal/service/activation"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
	block bool
}

func (r *countingRunner) RunAll(ctx context.Context, _ time.Time) (activation.RunSummary, error) {
	r.calls.Add(1)
	if r.block {
		<-ctx.Done()
		return activation.RunSummary{}, ctx.Err()
	}
	return activation.RunSummary{Clients: 1, Materialized: 2}, r.err
}

func TestActivationScheduler_RunImmediately(t *testing.T) {
	r := &countingRunner{}
	s := NewActivationScheduler("@every 1h", r, zap.NewNop())
	if err := s.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestActivationScheduler_InvalidSchedule(t *testing.T) {
	s := NewActivationScheduler("not a schedule", &countingRunner{}, zap.NewNop())
	if err := s.Start(false); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestActivationScheduler_RunOnceSwallowsErrors(t *testing.T) {
	r := &countingRunner{err: errors.New("db down")}
	s := NewActivationScheduler("@every 1h", r, zap.NewNop())
	s.RunOnce()
	if r.calls.Load() != 1 {
		t.Fatalf("runner not called")
	}
}

func TestActivationScheduler_StopCancelsRun(t *testing.T) {
	r := &countingRunner{block: true}
	s := NewActivationScheduler("@every 1h", r, zap.NewNop())
	if err := s.Start(false); err != nil {
		t.Fatalf("start: %v", err)
	}
	go s.RunOnce()
	for r.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not cancel the running activation")
	}
}

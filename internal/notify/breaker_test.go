package notify

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var errBoom = errors.New("boom")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newCircuitBreaker(BreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute, HalfOpenMaxRequests: 1}, clock.Now)

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker should reject without calling: err=%v called=%v", err, called)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Minute, HalfOpenMaxRequests: 2}, clock.Now)

	_ = cb.Execute(func() error { return errBoom })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	clock.Advance(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half_open", cb.State())
	}
	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("half-open attempt %d: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Second, HalfOpenMaxRequests: 1}, clock.Now)

	_ = cb.Execute(func() error { return errBoom })
	clock.Advance(time.Second)
	_ = cb.Execute(func() error { return errBoom })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after half-open failure", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("Reset should close the breaker")
	}
}

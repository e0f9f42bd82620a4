package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobsync/internal/model"
)

// --- Mock implementations ---

type countingRunner struct {
	calls   atomic.Int32
	success bool
}

func (r *countingRunner) Run(_ context.Context) model.RunSummary {
	r.calls.Add(1)
	return model.RunSummary{Success: r.success, Error: "boom"}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runUntil(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(d + 5*time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}

func TestScheduler_RunsImmediately(t *testing.T) {
	r := &countingRunner{success: true}
	s := NewScheduler(r, "@every 1h", discardLogger())

	runUntil(t, s, 100*time.Millisecond)

	if c := r.calls.Load(); c != 1 {
		t.Errorf("expected 1 immediate run, got %d", c)
	}
}

func TestScheduler_TicksOnSchedule(t *testing.T) {
	r := &countingRunner{success: true}
	s := NewScheduler(r, "@every 1s", discardLogger())

	runUntil(t, s, 2500*time.Millisecond)

	if c := r.calls.Load(); c < 2 {
		t.Errorf("expected immediate run plus at least one tick, got %d", c)
	}
}

func TestScheduler_FailedRunDoesNotStopScheduler(t *testing.T) {
	r := &countingRunner{success: false}
	s := NewScheduler(r, "@every 1s", discardLogger())

	runUntil(t, s, 1500*time.Millisecond)

	if c := r.calls.Load(); c < 2 {
		t.Errorf("expected runs to continue after failure, got %d", c)
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	r := &countingRunner{success: true}
	s := NewScheduler(r, "every now and then", discardLogger())

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if c := r.calls.Load(); c != 0 {
		t.Errorf("expected no runs, got %d", c)
	}
}

func TestScheduler_CancelledBeforeStart(t *testing.T) {
	r := &countingRunner{success: true}
	s := NewScheduler(r, DefaultSchedule, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if c := r.calls.Load(); c != 0 {
		t.Errorf("expected no runs after cancellation, got %d", c)
	}
}

func TestValidateSchedule(t *testing.T) {
	valid := []string{"@every 30m", "@hourly", "*/15 * * * *", "0 6 * * 1-5"}
	for _, spec := range valid {
		if err := ValidateSchedule(spec); err != nil {
			t.Errorf("ValidateSchedule(%q) = %v", spec, err)
		}
	}
	invalid := []string{"", "@every", "61 * * * *", "daily"}
	for _, spec := range invalid {
		if err := ValidateSchedule(spec); err == nil {
			t.Errorf("ValidateSchedule(%q) = nil, want error", spec)
		}
	}
}

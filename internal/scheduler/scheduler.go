package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobsync/internal/model"
)

// DefaultSchedule runs the pipeline every half hour.
const DefaultSchedule = "@every 30m"

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) model.RunSummary
}

// Scheduler wraps robfig/cron and triggers the runner on a schedule.
type Scheduler struct {
	runner Runner
	spec   string // cron spec, e.g. "@every 30m" or "0 */2 * * *"
	logger *slog.Logger
}

// NewScheduler creates a scheduler that runs runner on spec.
func NewScheduler(runner Runner, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		spec:   spec,
		logger: logger,
	}
}

// ValidateSchedule reports whether spec is a standard cron expression or a
// descriptor such as "@hourly" or "@every 30m".
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run runs one immediate pass, then triggers on the schedule. A tick that
// fires while the previous pass is still running is skipped. It returns nil
// when ctx is cancelled (graceful shutdown), after any in-flight pass ends.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec)

	// Run immediately on startup so the store is populated without waiting
	// for the first tick.
	s.runOnce(ctx)

	c.Start()
	<-ctx.Done()

	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	summary := s.runner.Run(ctx)
	if !summary.Success {
		s.logger.Error("scheduled run failed",
			"error", summary.Error,
			"collected", summary.ItemsCollected,
		)
		return
	}
	s.logger.Info("scheduled run finished",
		"collected", summary.ItemsCollected,
		"verified", summary.ItemsVerified,
	)
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

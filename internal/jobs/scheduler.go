// Package jobs owns the periodic verification task.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/clout/internal/domain/verification"
	"github.com/okian/clout/pkg/logger"
	"github.com/okian/clout/pkg/metrics"
)

const defaultInterval = time.Hour

// Trigger labels on the verification run metric.
const (
	TriggerScheduler = "scheduler"
	TriggerAdmin     = "admin"
	TriggerCLI       = "cli"
)

// Runner verifies every pending pick.
type Runner interface {
	VerifyAllPendingPicks(ctx context.Context) (verification.RunReport, error)
}

// Scheduler runs the verification batch once at start and then on every
// tick. A single goroutine drives it, so runs never overlap.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	clock    clockwork.Clock
	log      logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock swaps the clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// NewScheduler creates a scheduler around runner.
func NewScheduler(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		interval: defaultInterval,
		clock:    clockwork.NewRealClock(),
		log:      logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info(ctx, "verification scheduler started", logger.Duration("interval", s.interval))

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	_, _ = s.RunOnce(ctx, TriggerScheduler)
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "verification scheduler stopped")
			return nil
		case <-ticker.Chan():
			_, _ = s.RunOnce(ctx, TriggerScheduler)
		}
	}
}

// RunOnce runs a single batch, logging and recording the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, trigger string) (verification.RunReport, error) {
	start := s.clock.Now()
	report, err := s.runner.VerifyAllPendingPicks(ctx)
	metrics.RecordVerificationRun(trigger, float64(s.clock.Since(start).Milliseconds()))

	fields := []logger.Field{
		logger.String("trigger", trigger),
		logger.Int("events", report.Events),
		logger.Int("failed_events", report.FailedEvents),
		logger.Int("verified", report.Verified),
		logger.Int("correct", report.Correct),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", report.Failed),
		logger.Int("recomputed", report.Recomputed),
		logger.Duration("duration", report.Duration),
	}
	switch {
	case err == nil:
		s.log.Info(ctx, "verification run finished", fields...)
	case errors.Is(err, context.Canceled):
		s.log.Warn(ctx, "verification run cancelled", append(fields, logger.Error(err))...)
	default:
		s.log.Error(ctx, "verification run failed", append(fields, logger.Error(err))...)
	}
	return report, err
}

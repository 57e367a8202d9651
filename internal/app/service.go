// Package service implements the use cases behind the HTTP API and owns the
// lifecycle of the verification queue, workers and scheduler.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/clout/internal/adapters/mq/queue"
	"github.com/okian/clout/internal/adapters/mq/worker"
	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/auth"
	"github.com/okian/clout/internal/domain/dedupe"
	"github.com/okian/clout/internal/domain/verification"
	"github.com/okian/clout/internal/jobs"
	"github.com/okian/clout/pkg/logger"
	"github.com/okian/clout/pkg/metrics"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	engine    *verification.Engine
	tokens    *auth.Manager
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	scheduler *jobs.Scheduler
	clock     clockwork.Clock

	workerCount          int
	queueSize            int
	dedupeSize           int
	verificationInterval time.Duration
	jobTimeout           time.Duration

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of verification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the verification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the set of queued event ids.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithVerificationInterval sets the scheduler tick.
func WithVerificationInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.verificationInterval = d
		}
	}
}

// WithJobTimeout bounds one queued verification job.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithClock sets the clock used for timestamps and the scheduler.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over its collaborators.
func New(store repository.Store, engine *verification.Engine, tokens *auth.Manager, opts ...Option) *Service {
	s := &Service{
		store:                store,
		engine:               engine,
		tokens:               tokens,
		clock:                clockwork.NewRealClock(),
		workerCount:          1,
		queueSize:            1000,
		dedupeSize:           10000,
		verificationInterval: time.Hour,
		jobTimeout:           2 * time.Minute,
		logger:               logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, engine,
		worker.WithReleaser(s.deduper),
		worker.WithJobTimeout(s.jobTimeout),
	)
	s.scheduler = jobs.NewScheduler(engine,
		jobs.WithInterval(s.verificationInterval),
		jobs.WithClock(s.clock),
	)
	return s
}

// Start launches the verification workers. The scheduler is run by the
// caller through Scheduler().Run.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.pool.Start(ctx)
	s.started = true
	s.startedAt = s.clock.Now()
	s.logger.Info(ctx, "clout service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping clout service")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "clout service stopped")
	return err
}

// Scheduler returns the periodic verification task.
func (s *Service) Scheduler() *jobs.Scheduler { return s.scheduler }

// EnqueueVerification asks the workers to verify eventID. It reports false
// when the event is already queued or the queue is full; the scheduler picks
// such events up on its next tick.
func (s *Service) EnqueueVerification(ctx context.Context, eventID, reason string) bool {
	if s.deduper.SeenAndRecord(ctx, eventID) {
		metrics.RecordQueueDuplicate()
		s.logger.Debug(ctx, "verification already queued", logger.String("event_id", eventID))
		return false
	}
	job := queue.Job{EventID: eventID, Reason: reason, EnqueuedAt: s.clock.Now()}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, eventID)
		s.logger.Warn(ctx, "verification queue rejected job",
			logger.String("event_id", eventID), logger.String("reason", reason))
		return false
	}
	return true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"version":     Version,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"interval":    s.verificationInterval.String(),
	}
	if s.started {
		stats["uptime"] = s.clock.Since(s.startedAt).Round(time.Second).String()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["queuedEvents"] = s.deduper.Size()
	}
	if ids, err := s.store.ListCapperIDs(ctx); err == nil {
		stats["totalCappers"] = len(ids)
		metrics.UpdateTotalCappers(len(ids))
	}
	return stats
}

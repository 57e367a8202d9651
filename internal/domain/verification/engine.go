// Package verification resolves open picks against official fight results and
// keeps capper stats in step with the verified history.
package verification

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/scoring"
	"github.com/okian/clout/pkg/logger"
	"github.com/okian/clout/pkg/metrics"
)

const (
	defaultEventTimeout = 30 * time.Second
	statsWriteTimeout   = 5 * time.Second
)

// Report summarises one event pass.
type Report struct {
	EventID    string `json:"eventId"`
	Considered int    `json:"considered"`
	Verified   int    `json:"verified"`
	Correct    int    `json:"correct"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	// StaleCappers had a pick verified but their stats write failed.
	StaleCappers []string `json:"staleCappers,omitempty"`
}

// RunReport summarises a batch over all pending events.
type RunReport struct {
	Events       int           `json:"events"`
	FailedEvents int           `json:"failedEvents"`
	Considered   int           `json:"considered"`
	Verified     int           `json:"verified"`
	Correct      int           `json:"correct"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	Recomputed   int           `json:"recomputed"`
	Cancelled    bool          `json:"cancelled"`
	Duration     time.Duration `json:"duration"`
}

func (r *RunReport) add(ev Report) {
	r.Considered += ev.Considered
	r.Verified += ev.Verified
	r.Correct += ev.Correct
	r.Skipped += ev.Skipped
	r.Failed += ev.Failed
}

// Engine verifies picks. It holds no state beyond its collaborators and is
// safe for concurrent use when the stores honour their contracts.
type Engine struct {
	events  EventStore
	picks   PickStore
	cappers CapperStore

	calc         *scoring.Calculator
	clock        clockwork.Clock
	log          logger.Logger
	pub          Publisher
	eventTimeout time.Duration
}

// New creates an Engine over the given stores.
func New(events EventStore, picks PickStore, cappers CapperStore, opts ...Option) *Engine {
	e := &Engine{
		events:       events,
		picks:        picks,
		cappers:      cappers,
		calc:         scoring.NewCalculator(),
		clock:        clockwork.NewRealClock(),
		log:          logger.Get().Named("verification"),
		pub:          nopPublisher{},
		eventTimeout: defaultEventTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// VerifyPicksForEvent resolves every open pick of a completed event. Events
// in any other status are left alone. Running it twice is the same as
// running it once.
func (e *Engine) VerifyPicksForEvent(ctx context.Context, eventID string) (Report, error) {
	ev, err := e.events.FindEvent(ctx, eventID)
	if err != nil {
		return Report{EventID: eventID}, fmt.Errorf("verification: load event %s: %w", eventID, err)
	}
	return e.verifyEvent(ctx, &ev)
}

func (e *Engine) verifyEvent(ctx context.Context, ev *model.Event) (Report, error) {
	rep := Report{EventID: ev.ID}
	if ev.Status != model.EventCompleted {
		e.log.Debug(ctx, "event not completed, nothing to verify",
			logger.String("event_id", ev.ID), logger.String("status", string(ev.Status)))
		return rep, nil
	}

	open, err := e.picks.FindUnverifiedPicksForEvent(ctx, ev.ID)
	if err != nil {
		return rep, fmt.Errorf("verification: load picks for %s: %w", ev.ID, err)
	}

	for i := range open {
		// Stop between picks; the current pick is either fully applied or untouched.
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("verification: event %s interrupted after %d of %d picks: %w",
				ev.ID, rep.Considered, len(open), err)
		}
		rep.Considered++
		e.verifyPick(ctx, ev, &open[i], &rep)
	}

	if rep.Verified > 0 {
		e.log.Info(ctx, "event verified",
			logger.String("event_id", ev.ID),
			logger.Int("verified", rep.Verified),
			logger.Int("correct", rep.Correct),
			logger.Int("skipped", rep.Skipped),
			logger.Int("failed", rep.Failed))
	}
	return rep, nil
}

func (e *Engine) verifyPick(ctx context.Context, ev *model.Event, p *model.Pick, rep *Report) {
	log := e.log.With(logger.String("event_id", ev.ID), logger.String("pick_id", p.ID))

	res := resolveFight(ev, p)
	if res.fellBack {
		metrics.RecordFightIndexFallback()
		log.Warn(ctx, "pick has no fight index, matching against the first fight")
	}
	switch res.skipReason {
	case "":
	case SkipNoResult:
		rep.Skipped++
		metrics.RecordPickSkipped(res.skipReason)
		return
	default:
		rep.Skipped++
		metrics.RecordPickSkipped(res.skipReason)
		log.Warn(ctx, "pick left open: inconsistent event data",
			logger.String("reason", res.skipReason),
			logger.Int("fight_index", res.index),
			logger.Int("fights", len(ev.Fights)))
		return
	}

	result := res.fight.Result
	outcome := model.VerifiedOutcome{
		Winner:     result.Winner,
		Method:     result.Method,
		Round:      result.Round,
		VerifiedAt: e.clock.Now(),
		IsCorrect:  IsCorrect(p.Prediction, *result),
	}

	if err := e.picks.MarkVerified(ctx, p.ID, outcome); err != nil {
		if errors.Is(err, model.ErrAlreadyVerified) {
			rep.Skipped++
			metrics.RecordPickSkipped(SkipAlreadyVerified)
			log.Debug(ctx, "pick verified concurrently")
			return
		}
		rep.Failed++
		metrics.RecordErrorByComponent("verification", "mark_verified")
		log.Error(ctx, "failed to record outcome", logger.Error(err))
		return
	}

	// The outcome is written; finish the stats update even if ctx is cancelled.
	statsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsWriteTimeout)
	defer cancel()
	if _, err := e.cappers.UpdateStats(statsCtx, p.CapperID, e.applyOutcome(outcome.IsCorrect)); err != nil {
		rep.Failed++
		if !slices.Contains(rep.StaleCappers, p.CapperID) {
			rep.StaleCappers = append(rep.StaleCappers, p.CapperID)
		}
		metrics.RecordStatsUpdateError()
		log.Error(ctx, "pick verified but capper stats not updated",
			logger.String("capper_id", p.CapperID), logger.Error(err))
		return
	}

	rep.Verified++
	if outcome.IsCorrect {
		rep.Correct++
	}
	metrics.RecordPickVerified(outcome.IsCorrect)
	metrics.RecordStatsUpdate()

	note := model.PickVerified{
		PickID: p.ID, CapperID: p.CapperID, EventID: ev.ID,
		IsCorrect: outcome.IsCorrect, VerifiedAt: outcome.VerifiedAt,
	}
	if err := e.pub.PublishPickVerified(statsCtx, note); err != nil {
		metrics.RecordNotifyError()
		log.Warn(ctx, "failed to publish verified pick", logger.Error(err))
	}
}

// applyOutcome adds one graded pick to the stored counts.
func (e *Engine) applyOutcome(correct bool) model.StatsFunc {
	return func(u model.User) (model.CapperStats, error) {
		total := u.Stats.TotalPicks + 1
		wins := u.Stats.CorrectPicks
		if correct {
			wins++
		}
		return e.derive(wins, total, u.FollowerCount)
	}
}

func (e *Engine) derive(correct, total, followers int) (model.CapperStats, error) {
	s, err := e.calc.ComputeStats(correct, total, followers)
	if err != nil {
		return model.CapperStats{}, err
	}
	return model.CapperStats{
		TotalPicks:   total,
		CorrectPicks: correct,
		WinRate:      s.WinRate,
		CloutScore:   s.CloutScore,
	}, nil
}

// VerifyAllPendingPicks runs VerifyPicksForEvent over every completed event
// with results. A failing event is logged and counted; the batch goes on.
// Cappers left stale by a failed stats write are recomputed at the end.
func (e *Engine) VerifyAllPendingPicks(ctx context.Context) (RunReport, error) {
	start := e.clock.Now()
	var run RunReport

	events, err := e.events.FindCompletedEventsWithResults(ctx)
	if err != nil {
		return run, fmt.Errorf("verification: list completed events: %w", err)
	}

	var stale []string
	for i := range events {
		if ctx.Err() != nil {
			run.Cancelled = true
			break
		}
		run.Events++
		rep, err := e.safeVerify(ctx, &events[i])
		run.add(rep)
		for _, id := range rep.StaleCappers {
			if !slices.Contains(stale, id) {
				stale = append(stale, id)
			}
		}
		if err != nil {
			run.FailedEvents++
			metrics.RecordEventFailure()
			e.log.Error(ctx, "event verification failed",
				logger.String("event_id", events[i].ID), logger.Error(err))
		}
	}

	for _, id := range stale {
		if ctx.Err() != nil {
			break
		}
		if _, err := e.RecomputeCapperStats(ctx, id); err != nil {
			e.log.Error(ctx, "recompute after failed stats write", logger.String("capper_id", id), logger.Error(err))
			continue
		}
		run.Recomputed++
	}

	run.Duration = e.clock.Since(start)
	if run.Cancelled {
		return run, fmt.Errorf("verification: run cancelled after %d of %d events: %w", run.Events, len(events), ctx.Err())
	}
	return run, nil
}

// safeVerify runs one event under the per-event timeout and turns a panic
// into an error.
func (e *Engine) safeVerify(ctx context.Context, ev *model.Event) (rep Report, err error) {
	evCtx, cancel := context.WithTimeout(ctx, e.eventTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: event %s: %v", ErrPanic, ev.ID, r)
		}
	}()
	return e.verifyEvent(evCtx, ev)
}

// RecomputeCapperStats derives a capper's stats from scratch: counts come
// from the verified picks, the social part from the current follower count.
// Safe to run at any time.
func (e *Engine) RecomputeCapperStats(ctx context.Context, capperID string) (model.CapperStats, error) {
	verified, err := e.picks.ListVerifiedByCapper(ctx, capperID)
	if err != nil {
		return model.CapperStats{}, fmt.Errorf("verification: load verified picks of %s: %w", capperID, err)
	}
	correct := 0
	for i := range verified {
		if verified[i].VerifiedOutcome.IsCorrect {
			correct++
		}
	}

	u, err := e.cappers.UpdateStats(ctx, capperID, func(u model.User) (model.CapperStats, error) {
		return e.derive(correct, len(verified), u.FollowerCount)
	})
	if err != nil {
		return model.CapperStats{}, fmt.Errorf("verification: recompute %s: %w", capperID, err)
	}
	metrics.RecordRecompute()
	e.log.Info(ctx, "capper stats recomputed",
		logger.String("capper_id", capperID),
		logger.Int("total", u.Stats.TotalPicks),
		logger.Int("correct", u.Stats.CorrectPicks),
		logger.Float64("clout", u.Stats.CloutScore))
	return u.Stats, nil
}

// RecomputeAll recomputes every capper, continuing past failures.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := e.cappers.ListCapperIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("verification: list cappers: %w", err)
	}
	var (
		done int
		errs []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := e.RecomputeCapperStats(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// RefreshScore re-derives win rate and clout score from the stored counts and
// the current follower count. Call it after the follower count changes.
func (e *Engine) RefreshScore(ctx context.Context, capperID string) (model.CapperStats, error) {
	u, err := e.cappers.UpdateStats(ctx, capperID, func(u model.User) (model.CapperStats, error) {
		return e.derive(u.Stats.CorrectPicks, u.Stats.TotalPicks, u.FollowerCount)
	})
	if err != nil {
		return model.CapperStats{}, fmt.Errorf("verification: refresh score of %s: %w", capperID, err)
	}
	return u.Stats, nil
}

// Package admin implements the operator commands of clout-admin.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/okian/clout/internal/adapters/repository"
	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/verification"
	"github.com/okian/clout/internal/jobs"
	"github.com/okian/clout/pkg/logger"
)

// Runner executes admin commands against the configured stores.
type Runner struct {
	svc    *service.Service
	store  repository.Store
	engine *verification.Engine
	out    io.Writer
	logger logger.Logger
}

// NewRunner builds a Runner that prints reports to out.
func NewRunner(svc *service.Service, store repository.Store, engine *verification.Engine, out io.Writer) *Runner {
	return &Runner{
		svc:    svc,
		store:  store,
		engine: engine,
		out:    out,
		logger: logger.Get().Named("admin"),
	}
}

// Verify runs one verification pass over every completed event.
func (r *Runner) Verify(ctx context.Context) (verification.RunReport, error) {
	rep, err := jobs.NewScheduler(r.engine, jobs.WithLogger(r.logger)).RunOnce(ctx, jobs.TriggerCLI)
	if err != nil {
		return rep, err
	}
	fmt.Fprintf(r.out, "events: %d (failed %d)\n", rep.Events, rep.FailedEvents)
	fmt.Fprintf(r.out, "picks:  %d considered, %d verified, %d correct, %d skipped, %d failed\n",
		rep.Considered, rep.Verified, rep.Correct, rep.Skipped, rep.Failed)
	fmt.Fprintf(r.out, "stale cappers recomputed: %d\n", rep.Recomputed)
	fmt.Fprintf(r.out, "took %s\n", rep.Duration.Round(time.Millisecond))
	return rep, nil
}

// Recompute rebuilds stats from verified picks for capperID, or for every
// capper when capperID is empty. It returns the number of cappers updated.
func (r *Runner) Recompute(ctx context.Context, capperID string) (int, error) {
	if capperID != "" {
		stats, err := r.engine.RecomputeCapperStats(ctx, capperID)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(r.out, "%s: %d/%d correct, win rate %.2f, clout %.2f\n",
			capperID, stats.CorrectPicks, stats.TotalPicks, stats.WinRate, stats.CloutScore)
		return 1, nil
	}
	n, err := r.engine.RecomputeAll(ctx)
	fmt.Fprintf(r.out, "recomputed %d cappers\n", n)
	return n, err
}

// SeedReport counts what Seed created and skipped.
type SeedReport struct {
	CappersCreated int
	CappersSkipped int
	EventsCreated  int
	EventsSkipped  int
}

// Seed loads fixtures through the service so the usual validation applies.
// Existing cappers (by email) and events (by external ID) are skipped.
func (r *Runner) Seed(ctx context.Context, f *Fixtures) (SeedReport, error) {
	var rep SeedReport

	for _, c := range f.Cappers {
		_, err := r.svc.Signup(ctx, service.SignupInput{
			Username: c.Username,
			Email:    c.Email,
			Password: c.Password,
			Role:     model.RoleCapper,
		})
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			rep.CappersSkipped++
			continue
		case err != nil:
			return rep, fmt.Errorf("admin: seed capper %q: %w", c.Username, err)
		}
		rep.CappersCreated++
		if c.Bio != "" {
			if err := r.setBio(ctx, c.Email, c.Bio); err != nil {
				return rep, err
			}
		}
	}

	for _, e := range f.Events {
		_, err := r.store.FindEventByExternalID(ctx, e.ExternalID)
		if err == nil {
			rep.EventsSkipped++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return rep, fmt.Errorf("admin: look up event %q: %w", e.ExternalID, err)
		}
		if _, err := r.svc.CreateEvent(ctx, service.EventInput{
			ExternalID:   e.ExternalID,
			Name:         e.Name,
			Organization: e.Organization,
			Date:         e.Date,
			Venue:        e.Venue,
			Location:     e.Location,
			Fights:       e.Fights,
		}); err != nil {
			return rep, fmt.Errorf("admin: seed event %q: %w", e.ExternalID, err)
		}
		rep.EventsCreated++
	}

	r.logger.Info(ctx, "seed complete",
		logger.Int("cappers_created", rep.CappersCreated),
		logger.Int("cappers_skipped", rep.CappersSkipped),
		logger.Int("events_created", rep.EventsCreated),
		logger.Int("events_skipped", rep.EventsSkipped))
	fmt.Fprintf(r.out, "cappers: %d created, %d skipped\nevents:  %d created, %d skipped\n",
		rep.CappersCreated, rep.CappersSkipped, rep.EventsCreated, rep.EventsSkipped)
	return rep, nil
}

func (r *Runner) setBio(ctx context.Context, email, bio string) error {
	u, err := r.store.FindUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("admin: find seeded capper: %w", err)
	}
	if _, err := r.svc.UpdateProfile(ctx, u.ID, service.ProfileInput{Bio: &bio}); err != nil {
		return fmt.Errorf("admin: set bio for %q: %w", u.Username, err)
	}
	return nil
}

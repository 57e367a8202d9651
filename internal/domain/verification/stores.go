package verification

import (
	"context"

	"github.com/okian/clout/internal/domain/model"
)

// EventStore is the read side of events the engine needs.
type EventStore interface {
	FindCompletedEventsWithResults(ctx context.Context) ([]model.Event, error)
	FindEvent(ctx context.Context, id string) (model.Event, error)
}

// PickStore loads open picks and records outcomes.
type PickStore interface {
	FindUnverifiedPicksForEvent(ctx context.Context, eventID string) ([]model.Pick, error)
	// MarkVerified must fail with model.ErrAlreadyVerified when the pick is
	// no longer open.
	MarkVerified(ctx context.Context, pickID string, o model.VerifiedOutcome) error
	ListVerifiedByCapper(ctx context.Context, capperID string) ([]model.Pick, error)
}

// CapperStore owns capper stats. UpdateStats must serialize concurrent
// updates of the same capper.
type CapperStore interface {
	UpdateStats(ctx context.Context, capperID string, fn model.StatsFunc) (model.User, error)
	ListCapperIDs(ctx context.Context) ([]string, error)
}

// Publisher announces verified picks. Failures are logged, never retried.
type Publisher interface {
	PublishPickVerified(ctx context.Context, ev model.PickVerified) error
}

type nopPublisher struct{}

func (nopPublisher) PublishPickVerified(context.Context, model.PickVerified) error { return nil }

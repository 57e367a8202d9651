// Package repository defines the persistence contracts of the service and an
// in-memory implementation of all of them.
package repository

import (
	"context"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

// EventFilter narrows ListEvents. Zero fields match everything.
type EventFilter struct {
	Status       model.EventStatus
	Organization model.Organization
}

// PickFilter narrows ListPicks. Zero fields match everything.
type PickFilter struct {
	CapperID     string
	EventID      string
	Organization model.Organization
	// Pending selects open (true) or verified (false) picks when set.
	Pending *bool
}

// EventStore persists events and their results.
type EventStore interface {
	CreateEvent(ctx context.Context, e model.Event) error
	FindEvent(ctx context.Context, id string) (model.Event, error)
	FindEventByExternalID(ctx context.Context, externalID string) (model.Event, error)
	ListEvents(ctx context.Context, f EventFilter, p types.Page) ([]model.Event, int, error)
	// FindCompletedEventsWithResults returns completed events with at least one result.
	FindCompletedEventsWithResults(ctx context.Context) ([]model.Event, error)
	SetFightResult(ctx context.Context, eventID string, fightIndex int, r model.FightResult) (model.Event, error)
	// SetEventStatus moves an event forward; ErrInvalidTransition otherwise.
	SetEventStatus(ctx context.Context, eventID string, status model.EventStatus) (model.Event, error)
}

// PickStore persists picks.
type PickStore interface {
	CreatePick(ctx context.Context, p model.Pick) error
	FindPick(ctx context.Context, id string) (model.Pick, error)
	// SavePick updates the editable fields of an open pick; ErrPickLocked once verified.
	SavePick(ctx context.Context, p model.Pick) error
	// DeletePick removes an open pick; ErrPickLocked once verified.
	DeletePick(ctx context.Context, id string) error
	// ListPicks returns matching picks newest first, with the total match count.
	ListPicks(ctx context.Context, f PickFilter, p types.Page) ([]model.Pick, int, error)
	FindUnverifiedPicksForEvent(ctx context.Context, eventID string) ([]model.Pick, error)
	ListVerifiedByCapper(ctx context.Context, capperID string) ([]model.Pick, error)
	// MarkVerified attaches the outcome only if the pick is still open;
	// ErrAlreadyVerified otherwise.
	MarkVerified(ctx context.Context, pickID string, o model.VerifiedOutcome) error
	LikePick(ctx context.Context, pickID, userID string) (int, error)
	UnlikePick(ctx context.Context, pickID, userID string) (int, error)
}

// UserStore persists accounts, including capper stats.
type UserStore interface {
	// CreateUser stores u and returns it with Seq assigned; ErrDuplicate on
	// a username or email clash.
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	FindUser(ctx context.Context, id string) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateProfile(ctx context.Context, id, username, bio string) (model.User, error)
	// FindCapper is FindUser restricted to cappers.
	FindCapper(ctx context.Context, id string) (model.User, error)
	// UpdateStats serializes a read-modify-write of one capper's stats.
	UpdateStats(ctx context.Context, capperID string, fn model.StatsFunc) (model.User, error)
	ListCapperIDs(ctx context.Context) ([]string, error)
}

// FollowStore persists the follow graph and keeps both counters in step.
type FollowStore interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, p types.Page) ([]model.User, int, error)
	ListFollowing(ctx context.Context, userID string, p types.Page) ([]model.User, int, error)
}

// Leaderboard reads cappers ordered by stored clout score, descending, ties
// by account creation order.
type Leaderboard interface {
	TopCappers(ctx context.Context, p types.Page) ([]types.Entry, int, error)
	CapperRank(ctx context.Context, capperID string) (types.Entry, error)
}

// Store is everything the service persists.
type Store interface {
	EventStore
	PickStore
	UserStore
	FollowStore
	Leaderboard
	Close() error
}

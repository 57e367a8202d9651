package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
	"github.com/okian/clout/pkg/logger"
)

// Reasons attached to queued verification jobs.
const (
	ReasonEventCompleted = "event_completed"
	ReasonResultRecorded = "result_recorded"
)

// CreateEvent stores a new upcoming event.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (model.Event, error) {
	if err := in.validate(); err != nil {
		return model.Event{}, err
	}
	now := s.clock.Now()
	e := model.Event{
		ID:           uuid.NewString(),
		ExternalID:   in.ExternalID,
		Name:         in.Name,
		Organization: in.Organization,
		Date:         in.Date,
		Venue:        in.Venue,
		Location:     in.Location,
		Fights:       in.Fights,
		Status:       model.EventUpcoming,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info(ctx, "event created", logger.String("event_id", e.ID), logger.String("name", e.Name))
	return e, nil
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id string) (model.Event, error) {
	return s.store.FindEvent(ctx, id)
}

// ListEvents pages events by date.
func (s *Service) ListEvents(ctx context.Context, f repository.EventFilter, p types.Page) ([]model.Event, types.Pagination, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, types.Pagination{}, invalid("unknown status %q", f.Status)
	}
	events, total, err := s.store.ListEvents(ctx, f, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return events, types.NewPagination(p, total), nil
}

// SetEventStatus moves an event forward. Completing an event with results
// queues its picks for verification.
func (s *Service) SetEventStatus(ctx context.Context, eventID string, status model.EventStatus) (model.Event, error) {
	if !status.Valid() {
		return model.Event{}, invalid("unknown status %q", status)
	}
	e, err := s.store.SetEventStatus(ctx, eventID, status)
	if err != nil {
		return model.Event{}, err
	}
	s.logger.Info(ctx, "event status changed",
		logger.String("event_id", eventID), logger.String("status", string(status)))
	if e.Status == model.EventCompleted && e.HasResults() {
		s.EnqueueVerification(ctx, e.ID, ReasonEventCompleted)
	}
	return e, nil
}

// RecordFightResult stores the official result of one fight. On a
// completed event the picks are queued for verification right away.
func (s *Service) RecordFightResult(ctx context.Context, eventID string, fightIndex int, in ResultInput) (model.Event, error) {
	e, err := s.store.FindEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	f, ok := e.Fight(fightIndex)
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %d of %d", model.ErrInvalidFight, fightIndex, len(e.Fights))
	}
	if err := in.validate(f); err != nil {
		return model.Event{}, err
	}

	e, err = s.store.SetFightResult(ctx, eventID, fightIndex, model.FightResult{
		Winner:     in.Winner,
		Method:     in.Method,
		Round:      in.Round,
		Time:       in.Time,
		VerifiedAt: s.clock.Now(),
	})
	if err != nil {
		return model.Event{}, err
	}
	s.logger.Info(ctx, "fight result recorded",
		logger.String("event_id", eventID), logger.Int("fight_index", fightIndex),
		logger.String("winner", in.Winner), logger.String("method", string(in.Method)))
	if e.Status == model.EventCompleted {
		s.EnqueueVerification(ctx, e.ID, ReasonResultRecorded)
	}
	return e, nil
}

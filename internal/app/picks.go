package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
	"github.com/okian/clout/pkg/logger"
	"github.com/okian/clout/pkg/metrics"
)

// CreatePick stores a capper's prediction on one fight of an upcoming event.
func (s *Service) CreatePick(ctx context.Context, capper model.User, in PickInput) (model.Pick, error) {
	if !capper.IsCapper() {
		return model.Pick{}, fmt.Errorf("%w: only cappers can post picks", model.ErrForbidden)
	}
	e, err := s.store.FindEvent(ctx, in.EventID)
	if err != nil {
		return model.Pick{}, err
	}
	if e.Status != model.EventUpcoming {
		return model.Pick{}, invalid("event %s is %s; picks close when it starts", e.ID, e.Status)
	}
	f, ok := e.Fight(in.FightIndex)
	if !ok {
		return model.Pick{}, fmt.Errorf("%w: %d of %d", model.ErrInvalidFight, in.FightIndex, len(e.Fights))
	}
	if err := validatePrediction(&in.Prediction, in.Analysis, f); err != nil {
		return model.Pick{}, err
	}

	now := s.clock.Now()
	idx := in.FightIndex
	p := model.Pick{
		ID:         uuid.NewString(),
		CapperID:   capper.ID,
		EventID:    e.ID,
		FightIndex: &idx,
		FightEvent: model.FightEvent{
			EventName:    e.Name,
			Date:         e.Date,
			Fighters:     [2]string{f.Fighter1.Name, f.Fighter2.Name},
			Organization: e.Organization,
		},
		Prediction: in.Prediction,
		Analysis:   in.Analysis,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreatePick(ctx, p); err != nil {
		return model.Pick{}, fmt.Errorf("create pick: %w", err)
	}
	metrics.RecordPickCreated()
	s.logger.Info(ctx, "pick created",
		logger.String("pick_id", p.ID), logger.String("capper_id", capper.ID), logger.String("event_id", e.ID))
	return p, nil
}

// GetPick returns one pick.
func (s *Service) GetPick(ctx context.Context, id string) (model.Pick, error) {
	return s.store.FindPick(ctx, id)
}

// ListPicks pages picks newest first.
func (s *Service) ListPicks(ctx context.Context, f repository.PickFilter, p types.Page) ([]model.Pick, types.Pagination, error) {
	picks, total, err := s.store.ListPicks(ctx, f, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return picks, types.NewPagination(p, total), nil
}

func (s *Service) ownedPick(ctx context.Context, userID, pickID string) (model.Pick, model.Event, *model.Fight, error) {
	p, err := s.store.FindPick(ctx, pickID)
	if err != nil {
		return model.Pick{}, model.Event{}, nil, err
	}
	if p.CapperID != userID {
		return model.Pick{}, model.Event{}, nil, fmt.Errorf("%w: not your pick", model.ErrForbidden)
	}
	if p.Verified() {
		return model.Pick{}, model.Event{}, nil, repository.ErrPickLocked
	}
	e, err := s.store.FindEvent(ctx, p.EventID)
	if err != nil {
		return model.Pick{}, model.Event{}, nil, err
	}
	idx := 0
	if p.FightIndex != nil {
		idx = *p.FightIndex
	}
	f, ok := e.Fight(idx)
	if !ok {
		return model.Pick{}, model.Event{}, nil, fmt.Errorf("%w: %d of %d", model.ErrInvalidFight, idx, len(e.Fights))
	}
	return p, e, f, nil
}

// UpdatePick edits an open pick owned by userID while its event is upcoming.
func (s *Service) UpdatePick(ctx context.Context, userID, pickID string, in PickUpdate) (model.Pick, error) {
	p, e, f, err := s.ownedPick(ctx, userID, pickID)
	if err != nil {
		return model.Pick{}, err
	}
	if e.Status != model.EventUpcoming {
		return model.Pick{}, invalid("event %s is %s; picks close when it starts", e.ID, e.Status)
	}
	if in.Prediction != nil {
		p.Prediction = *in.Prediction
	}
	if in.Analysis != nil {
		p.Analysis = *in.Analysis
	}
	if err := validatePrediction(&p.Prediction, p.Analysis, f); err != nil {
		return model.Pick{}, err
	}
	if err := s.store.SavePick(ctx, p); err != nil {
		return model.Pick{}, err
	}
	return s.store.FindPick(ctx, pickID)
}

// DeletePick removes an open pick owned by userID.
func (s *Service) DeletePick(ctx context.Context, userID, pickID string) error {
	if _, _, _, err := s.ownedPick(ctx, userID, pickID); err != nil {
		return err
	}
	return s.store.DeletePick(ctx, pickID)
}

// LikePick adds userID's like and returns the new count.
func (s *Service) LikePick(ctx context.Context, userID, pickID string) (int, error) {
	return s.store.LikePick(ctx, pickID, userID)
}

// UnlikePick removes userID's like and returns the new count.
func (s *Service) UnlikePick(ctx context.Context, userID, pickID string) (int, error) {
	return s.store.UnlikePick(ctx, pickID, userID)
}

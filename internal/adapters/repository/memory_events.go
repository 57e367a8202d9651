package repository

import (
	"context"
	"fmt"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

// CreateEvent stores a new event.
func (m *Memory) CreateEvent(_ context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[e.ID]; ok {
		return fmt.Errorf("%w: event %s", ErrDuplicate, e.ID)
	}
	if e.ExternalID != "" {
		if _, ok := m.externals[e.ExternalID]; ok {
			return fmt.Errorf("%w: external id %s", ErrDuplicate, e.ExternalID)
		}
		m.externals[e.ExternalID] = e.ID
	}
	stored := cloneEvent(&e)
	m.events[e.ID] = &stored
	m.eventOrder = append(m.eventOrder, e.ID)
	return nil
}

// FindEvent returns an event by id.
func (m *Memory) FindEvent(_ context.Context, id string) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	return cloneEvent(e), nil
}

// FindEventByExternalID returns the event imported under externalID.
func (m *Memory) FindEventByExternalID(ctx context.Context, externalID string) (model.Event, error) {
	m.mu.RLock()
	id, ok := m.externals[externalID]
	m.mu.RUnlock()
	if !ok {
		return model.Event{}, fmt.Errorf("%w: external id %s", ErrNotFound, externalID)
	}
	return m.FindEvent(ctx, id)
}

// ListEvents returns events ordered by date ascending.
func (m *Memory) ListEvents(_ context.Context, f EventFilter, p types.Page) ([]model.Event, int, error) {
	if err := CheckPage(p); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []*model.Event
	for _, id := range m.eventOrder {
		e := m.events[id]
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Organization != "" && e.Organization != f.Organization {
			continue
		}
		hits = append(hits, e)
	}
	sortEventsByDate(hits)

	start, end := p.Window(len(hits))
	out := make([]model.Event, 0, end-start)
	for _, e := range hits[start:end] {
		out = append(out, cloneEvent(e))
	}
	return out, len(hits), nil
}

// FindCompletedEventsWithResults returns completed events with at least one result.
func (m *Memory) FindCompletedEventsWithResults(_ context.Context) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Event
	for _, id := range m.eventOrder {
		e := m.events[id]
		if e.Status == model.EventCompleted && e.HasResults() {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

// SetFightResult records the result of one fight.
func (m *Memory) SetFightResult(_ context.Context, eventID string, fightIndex int, r model.FightResult) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	if _, ok := e.Fight(fightIndex); !ok {
		return model.Event{}, fmt.Errorf("%w: %d of %d", ErrInvalidFight, fightIndex, len(e.Fights))
	}
	res := r
	e.Fights[fightIndex].Result = &res
	e.UpdatedAt = m.clock.Now()
	return cloneEvent(e), nil
}

// SetEventStatus moves an event forward; backward moves return ErrInvalidTransition.
func (m *Memory) SetEventStatus(_ context.Context, eventID string, status model.EventStatus) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	if !e.Status.CanTransition(status) {
		return model.Event{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, status)
	}
	e.Status = status
	e.UpdatedAt = m.clock.Now()
	return cloneEvent(e), nil
}

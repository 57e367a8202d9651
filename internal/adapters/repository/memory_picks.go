package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

func sortEventsByDate(events []*model.Event) {
	slices.SortStableFunc(events, func(a, b *model.Event) int {
		return a.Date.Compare(b.Date)
	})
}

func (r *pickRow) snapshot() model.Pick {
	p := r.pick
	p.Likes = len(r.likes)
	if r.pick.VerifiedOutcome != nil {
		o := *r.pick.VerifiedOutcome
		p.VerifiedOutcome = &o
	}
	return p
}

// CreatePick stores a new open pick.
func (m *Memory) CreatePick(_ context.Context, p model.Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.picks[p.ID]; ok {
		return fmt.Errorf("%w: pick %s", ErrDuplicate, p.ID)
	}
	m.pickSeq++
	m.picks[p.ID] = &pickRow{pick: p, seq: m.pickSeq, likes: make(map[string]struct{})}
	return nil
}

// FindPick returns a pick by id.
func (m *Memory) FindPick(_ context.Context, id string) (model.Pick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.picks[id]
	if !ok {
		return model.Pick{}, fmt.Errorf("%w: pick %s", ErrNotFound, id)
	}
	return r.snapshot(), nil
}

// SavePick replaces an open pick. Verified picks return ErrPickLocked.
func (m *Memory) SavePick(_ context.Context, p model.Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.picks[p.ID]
	if !ok {
		return fmt.Errorf("%w: pick %s", ErrNotFound, p.ID)
	}
	if r.pick.Verified() {
		return ErrPickLocked
	}
	r.pick.Prediction = p.Prediction
	r.pick.Analysis = p.Analysis
	r.pick.UpdatedAt = m.clock.Now()
	return nil
}

// DeletePick removes an open pick. Verified picks return ErrPickLocked.
func (m *Memory) DeletePick(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.picks[id]
	if !ok {
		return fmt.Errorf("%w: pick %s", ErrNotFound, id)
	}
	if r.pick.Verified() {
		return ErrPickLocked
	}
	delete(m.picks, id)
	return nil
}

func matchPick(p *model.Pick, f PickFilter) bool {
	switch {
	case f.CapperID != "" && p.CapperID != f.CapperID:
		return false
	case f.EventID != "" && p.EventID != f.EventID:
		return false
	case f.Organization != "" && p.FightEvent.Organization != f.Organization:
		return false
	case f.Pending != nil && *f.Pending == p.Verified():
		return false
	}
	return true
}

// sortedRows returns rows matching f, newest first.
func (m *Memory) sortedRows(f PickFilter) []*pickRow {
	var rows []*pickRow
	for _, r := range m.picks {
		if matchPick(&r.pick, f) {
			rows = append(rows, r)
		}
	}
	slices.SortFunc(rows, func(a, b *pickRow) int { return cmp.Compare(b.seq, a.seq) })
	return rows
}

// ListPicks pages picks matching f, newest first.
func (m *Memory) ListPicks(_ context.Context, f PickFilter, p types.Page) ([]model.Pick, int, error) {
	if err := CheckPage(p); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.sortedRows(f)
	start, end := p.Window(len(rows))
	out := make([]model.Pick, 0, end-start)
	for _, r := range rows[start:end] {
		out = append(out, r.snapshot())
	}
	return out, len(rows), nil
}

// FindUnverifiedPicksForEvent returns open picks oldest first.
func (m *Memory) FindUnverifiedPicksForEvent(_ context.Context, eventID string) ([]model.Pick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pending := true
	rows := m.sortedRows(PickFilter{EventID: eventID, Pending: &pending})
	slices.Reverse(rows)
	out := make([]model.Pick, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.snapshot())
	}
	return out, nil
}

// ListVerifiedByCapper returns every verified pick of a capper.
func (m *Memory) ListVerifiedByCapper(_ context.Context, capperID string) ([]model.Pick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pending := false
	rows := m.sortedRows(PickFilter{CapperID: capperID, Pending: &pending})
	out := make([]model.Pick, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.snapshot())
	}
	return out, nil
}

// MarkVerified attaches the outcome to an open pick. A pick that already
// has one returns ErrAlreadyVerified.
func (m *Memory) MarkVerified(_ context.Context, pickID string, o model.VerifiedOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.picks[pickID]
	if !ok {
		return fmt.Errorf("%w: pick %s", ErrNotFound, pickID)
	}
	if r.pick.Verified() {
		return ErrAlreadyVerified
	}
	outcome := o
	r.pick.VerifiedOutcome = &outcome
	r.pick.UpdatedAt = m.clock.Now()
	return nil
}

// LikePick records a like and returns the new count.
func (m *Memory) LikePick(_ context.Context, pickID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.picks[pickID]
	if !ok {
		return 0, fmt.Errorf("%w: pick %s", ErrNotFound, pickID)
	}
	if _, ok := r.likes[userID]; ok {
		return len(r.likes), ErrAlreadyLiked
	}
	r.likes[userID] = struct{}{}
	return len(r.likes), nil
}

// UnlikePick removes a like and returns the new count.
func (m *Memory) UnlikePick(_ context.Context, pickID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.picks[pickID]
	if !ok {
		return 0, fmt.Errorf("%w: pick %s", ErrNotFound, pickID)
	}
	if _, ok := r.likes[userID]; !ok {
		return len(r.likes), ErrNotLiked
	}
	delete(r.likes, userID)
	return len(r.likes), nil
}

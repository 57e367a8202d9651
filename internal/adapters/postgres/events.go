package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

const eventCols = `id, external_id, name, organization, date, venue, location,
	fights, status, created_at, updated_at`

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	var externalID *string
	var org, status string
	err := row.Scan(
		&e.ID, &externalID, &e.Name, &org, &e.Date, &e.Venue, &e.Location,
		&e.Fights, &status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	if externalID != nil {
		e.ExternalID = *externalID
	}
	e.Organization = model.Organization(org)
	e.Status = model.EventStatus(status)
	return e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateEvent stores a new event.
func (s *Store) CreateEvent(ctx context.Context, e model.Event) error {
	now := s.clock.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.Fights == nil {
		e.Fights = []model.Fight{}
	}

	const query = `
		INSERT INTO events (
			id, external_id, name, organization, date, venue, location,
			fights, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.pool.Exec(ctx, query,
		e.ID, nullString(e.ExternalID), e.Name, string(e.Organization), e.Date, e.Venue, e.Location,
		e.Fights, string(e.Status), e.CreatedAt, now,
	)
	return mapErr(err, "create event "+e.ID)
}

// FindEvent returns an event by id.
func (s *Store) FindEvent(ctx context.Context, id string) (model.Event, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx, `SELECT `+eventCols+` FROM events WHERE id = $1`, id))
	if err != nil {
		return model.Event{}, mapErr(err, "event "+id)
	}
	return e, nil
}

// FindEventByExternalID returns the event imported under externalID.
func (s *Store) FindEventByExternalID(ctx context.Context, externalID string) (model.Event, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx,
		`SELECT `+eventCols+` FROM events WHERE external_id = $1`, externalID))
	if err != nil {
		return model.Event{}, mapErr(err, "external id "+externalID)
	}
	return e, nil
}

// ListEvents returns events ordered by date ascending.
func (s *Store) ListEvents(ctx context.Context, f repository.EventFilter, p types.Page) ([]model.Event, int, error) {
	if err := repository.CheckPage(p); err != nil {
		return nil, 0, err
	}

	var w where
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	if f.Organization != "" {
		w.add("organization = $%d", string(f.Organization))
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count events: %w", err)
	}

	query := `SELECT ` + eventCols + ` FROM events` + w.String() + ` ORDER BY date ASC, created_at ASC`
	query += w.page(p.Limit, p.Offset())
	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list events: %w", err)
	}
	return events, total, nil
}

// completedWithResultsQuery selects completed events with at least one fight
// result. Fights are stored without a result key until one is recorded.
const completedWithResultsQuery = `SELECT ` + eventCols + ` FROM events
	WHERE status = $1 AND jsonb_path_exists(fights, '$[*] ? (@.result != null)')
	ORDER BY date ASC`

// FindCompletedEventsWithResults returns completed events with at least one result.
func (s *Store) FindCompletedEventsWithResults(ctx context.Context) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx, completedWithResultsQuery, string(model.EventCompleted))
	if err != nil {
		return nil, fmt.Errorf("postgres: completed events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: completed events: %w", err)
	}
	return events, nil
}

// lockEvent reads an event under a row lock inside tx.
func lockEvent(ctx context.Context, tx pgx.Tx, id string) (model.Event, error) {
	e, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventCols+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return model.Event{}, mapErr(err, "event "+id)
	}
	return e, nil
}

// SetFightResult records the result of one fight.
func (s *Store) SetFightResult(ctx context.Context, eventID string, fightIndex int, r model.FightResult) (model.Event, error) {
	var out model.Event
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		e, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if _, ok := e.Fight(fightIndex); !ok {
			return fmt.Errorf("%w: %d of %d", repository.ErrInvalidFight, fightIndex, len(e.Fights))
		}
		res := r
		e.Fights[fightIndex].Result = &res
		e.UpdatedAt = s.clock.Now()

		if _, err := tx.Exec(ctx,
			`UPDATE events SET fights = $2, updated_at = $3 WHERE id = $1`,
			eventID, e.Fights, e.UpdatedAt); err != nil {
			return fmt.Errorf("postgres: set fight result %s/%d: %w", eventID, fightIndex, err)
		}
		out = e
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return out, nil
}

// SetEventStatus moves an event forward; backward moves return ErrInvalidTransition.
func (s *Store) SetEventStatus(ctx context.Context, eventID string, status model.EventStatus) (model.Event, error) {
	var out model.Event
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		e, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !e.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, e.Status, status)
		}
		e.Status = status
		e.UpdatedAt = s.clock.Now()

		if _, err := tx.Exec(ctx,
			`UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`,
			eventID, string(status), e.UpdatedAt); err != nil {
			return fmt.Errorf("postgres: set event status %s: %w", eventID, err)
		}
		out = e
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return out, nil
}

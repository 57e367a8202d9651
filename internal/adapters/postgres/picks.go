package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

const pickCols = `id, capper_id, event_id, fight_index,
	event_name, event_date, fighter_1, fighter_2, organization,
	winner, method, round, odds, confidence, analysis, likes,
	verified_winner, verified_method, verified_round, verified_at, is_correct,
	created_at, updated_at`

func scanPick(row pgx.Row) (model.Pick, error) {
	var (
		p              model.Pick
		eventDate      *time.Time
		org            string
		method         *string
		verifiedWinner *string
		verifiedMethod *string
		verifiedRound  *int
		verifiedAt     *time.Time
		isCorrect      *bool
	)
	err := row.Scan(
		&p.ID, &p.CapperID, &p.EventID, &p.FightIndex,
		&p.FightEvent.EventName, &eventDate, &p.FightEvent.Fighters[0], &p.FightEvent.Fighters[1], &org,
		&p.Prediction.Winner, &method, &p.Prediction.Round, &p.Prediction.Odds,
		&p.Prediction.Confidence, &p.Analysis, &p.Likes,
		&verifiedWinner, &verifiedMethod, &verifiedRound, &verifiedAt, &isCorrect,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Pick{}, err
	}
	if eventDate != nil {
		p.FightEvent.Date = *eventDate
	}
	p.FightEvent.Organization = model.Organization(org)
	if method != nil {
		m := model.Method(*method)
		p.Prediction.Method = &m
	}
	if verifiedAt != nil {
		o := &model.VerifiedOutcome{VerifiedAt: *verifiedAt, Round: verifiedRound}
		if verifiedWinner != nil {
			o.Winner = *verifiedWinner
		}
		if verifiedMethod != nil {
			o.Method = model.Method(*verifiedMethod)
		}
		if isCorrect != nil {
			o.IsCorrect = *isCorrect
		}
		p.VerifiedOutcome = o
	}
	return p, nil
}

func collectPicks(rows pgx.Rows) ([]model.Pick, error) {
	defer rows.Close()
	var out []model.Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func methodArg(m *model.Method) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}

// CreatePick stores a new open pick.
func (s *Store) CreatePick(ctx context.Context, p model.Pick) error {
	now := s.clock.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	var eventDate *time.Time
	if !p.FightEvent.Date.IsZero() {
		eventDate = &p.FightEvent.Date
	}

	const query = `
		INSERT INTO picks (
			id, capper_id, event_id, fight_index,
			event_name, event_date, fighter_1, fighter_2, organization,
			winner, method, round, odds, confidence, analysis,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.CapperID, p.EventID, p.FightIndex,
		p.FightEvent.EventName, eventDate, p.FightEvent.Fighters[0], p.FightEvent.Fighters[1], string(p.FightEvent.Organization),
		p.Prediction.Winner, methodArg(p.Prediction.Method), p.Prediction.Round, p.Prediction.Odds,
		p.Prediction.Confidence, p.Analysis,
		p.CreatedAt, now,
	)
	return mapErr(err, "create pick "+p.ID)
}

// FindPick returns a pick by id.
func (s *Store) FindPick(ctx context.Context, id string) (model.Pick, error) {
	p, err := scanPick(s.pool.QueryRow(ctx, `SELECT `+pickCols+` FROM picks WHERE id = $1`, id))
	if err != nil {
		return model.Pick{}, mapErr(err, "pick "+id)
	}
	return p, nil
}

// lockedOr explains why a conditional write on an open pick touched no row.
func (s *Store) lockedOr(ctx context.Context, id string, locked error) error {
	var verified bool
	err := s.pool.QueryRow(ctx, `SELECT verified_at IS NOT NULL FROM picks WHERE id = $1`, id).Scan(&verified)
	if err != nil {
		return mapErr(err, "pick "+id)
	}
	if verified {
		return locked
	}
	return fmt.Errorf("postgres: pick %s changed concurrently", id)
}

// SavePick replaces an open pick. Verified picks return ErrPickLocked.
func (s *Store) SavePick(ctx context.Context, p model.Pick) error {
	const query = `
		UPDATE picks SET
			winner     = $2,
			method     = $3,
			round      = $4,
			odds       = $5,
			confidence = $6,
			analysis   = $7,
			updated_at = $8
		WHERE id = $1 AND verified_at IS NULL`
	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Prediction.Winner, methodArg(p.Prediction.Method), p.Prediction.Round,
		p.Prediction.Odds, p.Prediction.Confidence, p.Analysis, s.clock.Now())
	if err != nil {
		return fmt.Errorf("postgres: save pick %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return s.lockedOr(ctx, p.ID, repository.ErrPickLocked)
	}
	return nil
}

// DeletePick removes an open pick. Verified picks return ErrPickLocked.
func (s *Store) DeletePick(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM picks WHERE id = $1 AND verified_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete pick %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.lockedOr(ctx, id, repository.ErrPickLocked)
	}
	return nil
}

// pickWhere builds the predicate for f.
func pickWhere(f repository.PickFilter) *where {
	w := &where{}
	if f.CapperID != "" {
		w.add("capper_id = $%d", f.CapperID)
	}
	if f.EventID != "" {
		w.add("event_id = $%d", f.EventID)
	}
	if f.Organization != "" {
		w.add("organization = $%d", string(f.Organization))
	}
	if f.Pending != nil {
		if *f.Pending {
			w.raw("verified_at IS NULL")
		} else {
			w.raw("verified_at IS NOT NULL")
		}
	}
	return w
}

// ListPicks returns picks newest first.
func (s *Store) ListPicks(ctx context.Context, f repository.PickFilter, p types.Page) ([]model.Pick, int, error) {
	if err := repository.CheckPage(p); err != nil {
		return nil, 0, err
	}
	w := pickWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM picks`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count picks: %w", err)
	}

	query := `SELECT ` + pickCols + ` FROM picks` + w.String() + ` ORDER BY seq DESC`
	query += w.page(p.Limit, p.Offset())
	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list picks: %w", err)
	}
	picks, err := collectPicks(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list picks: %w", err)
	}
	return picks, total, nil
}

// FindUnverifiedPicksForEvent returns open picks oldest first.
func (s *Store) FindUnverifiedPicksForEvent(ctx context.Context, eventID string) ([]model.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pickCols+` FROM picks WHERE event_id = $1 AND verified_at IS NULL ORDER BY seq ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: pending picks of %s: %w", eventID, err)
	}
	picks, err := collectPicks(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: pending picks of %s: %w", eventID, err)
	}
	return picks, nil
}

// ListVerifiedByCapper returns every verified pick of a capper.
func (s *Store) ListVerifiedByCapper(ctx context.Context, capperID string) ([]model.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pickCols+` FROM picks WHERE capper_id = $1 AND verified_at IS NOT NULL ORDER BY seq DESC`, capperID)
	if err != nil {
		return nil, fmt.Errorf("postgres: verified picks of %s: %w", capperID, err)
	}
	picks, err := collectPicks(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: verified picks of %s: %w", capperID, err)
	}
	return picks, nil
}

// MarkVerified only touches a still-open pick, so two verifiers racing on the
// same pick cannot both count it.
func (s *Store) MarkVerified(ctx context.Context, pickID string, o model.VerifiedOutcome) error {
	const query = `
		UPDATE picks SET
			verified_winner = $2,
			verified_method = $3,
			verified_round  = $4,
			verified_at     = $5,
			is_correct      = $6,
			updated_at      = $7
		WHERE id = $1 AND verified_at IS NULL`
	tag, err := s.pool.Exec(ctx, query,
		pickID, o.Winner, string(o.Method), o.Round, o.VerifiedAt, o.IsCorrect, s.clock.Now())
	if err != nil {
		return fmt.Errorf("postgres: mark verified %s: %w", pickID, err)
	}
	if tag.RowsAffected() == 0 {
		return s.lockedOr(ctx, pickID, repository.ErrAlreadyVerified)
	}
	return nil
}

// LikePick records a like and returns the new count.
func (s *Store) LikePick(ctx context.Context, pickID, userID string) (int, error) {
	return s.like(ctx, pickID, userID,
		`INSERT INTO pick_likes (pick_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		`UPDATE picks SET likes = likes + 1 WHERE id = $1 RETURNING likes`,
		repository.ErrAlreadyLiked)
}

// UnlikePick removes a like and returns the new count.
func (s *Store) UnlikePick(ctx context.Context, pickID, userID string) (int, error) {
	return s.like(ctx, pickID, userID,
		`DELETE FROM pick_likes WHERE pick_id = $1 AND user_id = $2`,
		`UPDATE picks SET likes = GREATEST(likes - 1, 0) WHERE id = $1 RETURNING likes`,
		repository.ErrNotLiked)
}

// like applies a like-set change and the counter in one transaction. When
// the set is unchanged it returns the current count with noop.
func (s *Store) like(ctx context.Context, pickID, userID, change, bump string, noop error) (int, error) {
	var likes int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT likes FROM picks WHERE id = $1 FOR UPDATE`, pickID).Scan(&likes); err != nil {
			return mapErr(err, "pick "+pickID)
		}
		tag, err := tx.Exec(ctx, change, pickID, userID)
		if err != nil {
			return mapErr(err, "like "+pickID)
		}
		if tag.RowsAffected() == 0 {
			return noop
		}
		return tx.QueryRow(ctx, bump, pickID).Scan(&likes)
	})
	if err != nil {
		return likes, err
	}
	return likes, nil
}

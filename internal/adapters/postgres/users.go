package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

const userCols = `id, seq, username, email, password_hash, role, bio,
	follower_count, following_count,
	total_picks, correct_picks, win_rate, clout_score,
	created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(
		&u.ID, &u.Seq, &u.Username, &u.Email, &u.PasswordHash, &role, &u.Bio,
		&u.FollowerCount, &u.FollowingCount,
		&u.Stats.TotalPicks, &u.Stats.CorrectPicks, &u.Stats.WinRate, &u.Stats.CloutScore,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]model.User, error) {
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CreateUser stores a new account. A clashing username or email returns ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	now := s.clock.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	const query = `
		INSERT INTO users (
			id, username, email, password_hash, role, bio,
			total_picks, correct_picks, win_rate, clout_score,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`
	err := s.pool.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.Bio,
		u.Stats.TotalPicks, u.Stats.CorrectPicks, u.Stats.WinRate, u.Stats.CloutScore,
		u.CreatedAt, u.UpdatedAt,
	).Scan(&u.Seq)
	if err != nil {
		return model.User{}, mapErr(err, "create user "+u.ID)
	}
	return u, nil
}

// FindUser returns any account by id.
func (s *Store) FindUser(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return model.User{}, mapErr(err, "user "+id)
	}
	return u, nil
}

// FindUserByEmail looks an account up by email, ignoring case.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return model.User{}, mapErr(err, "email")
	}
	return u, nil
}

// FindCapper returns the account only when it is a capper.
func (s *Store) FindCapper(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1 AND role = 'capper'`, id))
	if err != nil {
		return model.User{}, mapErr(err, "capper "+id)
	}
	return u, nil
}

// UpdateProfile sets the bio, and the username when it is not empty.
func (s *Store) UpdateProfile(ctx context.Context, id, username, bio string) (model.User, error) {
	const query = `
		UPDATE users SET
			username   = COALESCE(NULLIF($2, ''), username),
			bio        = $3,
			updated_at = $4
		WHERE id = $1
		RETURNING ` + userCols
	u, err := scanUser(s.pool.QueryRow(ctx, query, id, username, bio, s.clock.Now()))
	if err != nil {
		return model.User{}, mapErr(err, "update profile "+id)
	}
	return u, nil
}

// UpdateStats locks the capper row for the duration of fn.
func (s *Store) UpdateStats(ctx context.Context, capperID string, fn model.StatsFunc) (model.User, error) {
	var out model.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx,
			`SELECT `+userCols+` FROM users WHERE id = $1 AND role = 'capper' FOR UPDATE`, capperID))
		if err != nil {
			return mapErr(err, "capper "+capperID)
		}
		stats, err := fn(u)
		if err != nil {
			return err
		}

		const update = `
			UPDATE users SET
				total_picks   = $2,
				correct_picks = $3,
				win_rate      = $4,
				clout_score   = $5,
				updated_at    = $6
			WHERE id = $1
			RETURNING ` + userCols
		out, err = scanUser(tx.QueryRow(ctx, update,
			capperID, stats.TotalPicks, stats.CorrectPicks, stats.WinRate, stats.CloutScore, s.clock.Now()))
		if err != nil {
			return fmt.Errorf("postgres: write stats %s: %w", capperID, err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return out, nil
}

// ListCapperIDs returns every capper id in signup order.
func (s *Store) ListCapperIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM users WHERE role = 'capper' ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list cappers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: list cappers: %w", err)
	}
	return ids, nil
}

// ---- follows

// Follow adds the edge and bumps both counters.
func (s *Store) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return repository.ErrSelfFollow
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO follows (follower_id, followee_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, followerID, followeeID, s.clock.Now())
		if err != nil {
			return mapErr(err, "user")
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrAlreadyFollowing
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET following_count = following_count + 1 WHERE id = $1`, followerID); err != nil {
			return fmt.Errorf("postgres: bump following: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET follower_count = follower_count + 1 WHERE id = $1`, followeeID); err != nil {
			return fmt.Errorf("postgres: bump followers: %w", err)
		}
		return nil
	})
}

// Unfollow removes the edge and lowers both counters.
func (s *Store) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
		if err != nil {
			return fmt.Errorf("postgres: unfollow: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFollowing
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET following_count = GREATEST(following_count - 1, 0) WHERE id = $1`, followerID); err != nil {
			return fmt.Errorf("postgres: drop following: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET follower_count = GREATEST(follower_count - 1, 0) WHERE id = $1`, followeeID); err != nil {
			return fmt.Errorf("postgres: drop followers: %w", err)
		}
		return nil
	})
}

// IsFollowing reports whether the edge exists.
func (s *Store) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`,
		followerID, followeeID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("postgres: is following: %w", err)
	}
	return ok, nil
}

// ListFollowers pages the users following userID, newest first.
func (s *Store) ListFollowers(ctx context.Context, userID string, p types.Page) ([]model.User, int, error) {
	return s.listFollow(ctx, userID, p, "followee_id", "follower_id")
}

// ListFollowing pages the users userID follows, newest first.
func (s *Store) ListFollowing(ctx context.Context, userID string, p types.Page) ([]model.User, int, error) {
	return s.listFollow(ctx, userID, p, "follower_id", "followee_id")
}

// listFollow pages users joined through follows, newest edge first. by and
// other are fixed column names, never user input.
func (s *Store) listFollow(ctx context.Context, userID string, p types.Page, by, other string) ([]model.User, int, error) {
	if err := repository.CheckPage(p); err != nil {
		return nil, 0, err
	}
	if _, err := s.FindUser(ctx, userID); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM follows WHERE `+by+` = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count follows: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+prefixed("u.", userCols)+`
		FROM follows f JOIN users u ON u.id = f.`+other+`
		WHERE f.`+by+` = $1
		ORDER BY f.seq DESC
		LIMIT $2 OFFSET $3`, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list follows: %w", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list follows: %w", err)
	}
	return users, total, nil
}

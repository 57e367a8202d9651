package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/types"
)

const entryCols = `id, username, follower_count, total_picks, correct_picks, win_rate, clout_score`

func scanEntry(row pgx.Row, e *types.Entry) error {
	return row.Scan(&e.CapperID, &e.Username, &e.FollowerCount,
		&e.TotalPicks, &e.CorrectPicks, &e.WinRate, &e.CloutScore)
}

// TopCappers returns one page of the leaderboard and the number of cappers.
func (s *Store) TopCappers(ctx context.Context, p types.Page) ([]types.Entry, int, error) {
	if err := repository.CheckPage(p); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'capper'`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count cappers: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+entryCols+`
		FROM users
		WHERE role = 'capper'
		ORDER BY clout_score DESC, seq ASC
		LIMIT $1 OFFSET $2`, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]types.Entry, 0, p.Limit)
	for rows.Next() {
		e := types.Entry{Rank: p.Offset() + len(out) + 1}
		if err := scanEntry(rows, &e); err != nil {
			return nil, 0, fmt.Errorf("postgres: scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: leaderboard: %w", err)
	}
	return out, total, nil
}

// CapperRank counts the cappers ordered ahead of id.
func (s *Store) CapperRank(ctx context.Context, capperID string) (types.Entry, error) {
	const query = `
		SELECT ` + entryCols + `,
			1 + (
				SELECT COUNT(*) FROM users o
				WHERE o.role = 'capper'
				  AND (o.clout_score > u.clout_score
				       OR (o.clout_score = u.clout_score AND o.seq < u.seq))
			)
		FROM users u
		WHERE u.id = $1 AND u.role = 'capper'`

	var e types.Entry
	err := s.pool.QueryRow(ctx, query, capperID).Scan(&e.CapperID, &e.Username, &e.FollowerCount,
		&e.TotalPicks, &e.CorrectPicks, &e.WinRate, &e.CloutScore, &e.Rank)
	if err != nil {
		return types.Entry{}, mapErr(err, "capper "+capperID)
	}
	return e, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/auth"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
	"github.com/okian/clout/pkg/logger"
	"github.com/okian/clout/pkg/metrics"
)

const recentPicksOnProfile = 5

// Session is a logged-in user and their bearer token.
type Session struct {
	Token string
	User  model.User
}

// CapperProfile is the public view of a capper.
type CapperProfile struct {
	User         model.User
	Rank         int
	PendingPicks int
	RecentPicks  []model.Pick
}

// Signup creates an account and logs it in.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	if err := in.normalize(); err != nil {
		return Session{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}

	now := s.clock.Now()
	u, err := s.store.CreateUser(ctx, model.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Session{}, fmt.Errorf("signup: %w", err)
	}
	if u.IsCapper() {
		metrics.UpdateTotalCappers(s.capperCount(ctx))
	}

	tok, err := s.tokens.IssueSession(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info(ctx, "user signed up", logger.String("user_id", u.ID), logger.String("role", string(u.Role)))
	return Session{Token: tok, User: u}, nil
}

func (s *Service) capperCount(ctx context.Context) int {
	ids, err := s.store.ListCapperIDs(ctx)
	if err != nil {
		return 0
	}
	return len(ids)
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return Session{}, err
	}
	tok, err := s.tokens.IssueSession(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tok, User: u}, nil
}

// Logout revokes a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	id, err := s.tokens.Authenticate(ctx, token)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.store.FindUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, auth.ErrUnauthenticated
	}
	return u, err
}

// IssueCSRF hands out a CSRF token for userID.
func (s *Service) IssueCSRF(ctx context.Context, userID string) (string, error) {
	return s.tokens.IssueCSRF(ctx, userID)
}

// VerifyCSRF checks the CSRF token sent by userID.
func (s *Service) VerifyCSRF(ctx context.Context, userID, token string) error {
	return s.tokens.VerifyCSRF(ctx, userID, token)
}

// GetUser returns any account.
func (s *Service) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.store.FindUser(ctx, id)
}

// UpdateProfile changes the username and bio; other fields are not editable.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (model.User, error) {
	cur, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	username, bio := "", cur.Bio
	if in.Username != nil {
		username = *in.Username
		if err := validateUsername(username); err != nil {
			return model.User{}, err
		}
	}
	if in.Bio != nil {
		bio = *in.Bio
		if len([]rune(bio)) > maxBioLen {
			return model.User{}, invalid("bio cannot exceed %d characters", maxBioLen)
		}
	}
	return s.store.UpdateProfile(ctx, userID, username, bio)
}

// CapperProfile returns stored stats, rank, the pending count and the five
// most recent picks of a capper.
func (s *Service) CapperProfile(ctx context.Context, capperID string) (CapperProfile, error) {
	u, err := s.store.FindCapper(ctx, capperID)
	if err != nil {
		return CapperProfile{}, err
	}
	entry, err := s.store.CapperRank(ctx, capperID)
	if err != nil {
		return CapperProfile{}, err
	}
	recent, _, err := s.store.ListPicks(ctx,
		repository.PickFilter{CapperID: capperID},
		types.Page{Page: 1, Limit: recentPicksOnProfile})
	if err != nil {
		return CapperProfile{}, err
	}
	pending := true
	_, open, err := s.store.ListPicks(ctx,
		repository.PickFilter{CapperID: capperID, Pending: &pending},
		types.Page{Page: 1, Limit: 1})
	if err != nil {
		return CapperProfile{}, err
	}
	return CapperProfile{User: u, Rank: entry.Rank, PendingPicks: open, RecentPicks: recent}, nil
}

// Follow adds an edge and refreshes the followee's clout when they are a capper.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) (model.User, error) {
	if err := s.store.Follow(ctx, followerID, followeeID); err != nil {
		return model.User{}, err
	}
	metrics.RecordFollowChange("follow")
	return s.afterFollowChange(ctx, followeeID)
}

// Unfollow removes an edge and refreshes the followee's clout.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) (model.User, error) {
	if err := s.store.Unfollow(ctx, followerID, followeeID); err != nil {
		return model.User{}, err
	}
	metrics.RecordFollowChange("unfollow")
	return s.afterFollowChange(ctx, followeeID)
}

func (s *Service) afterFollowChange(ctx context.Context, followeeID string) (model.User, error) {
	u, err := s.store.FindUser(ctx, followeeID)
	if err != nil {
		return model.User{}, err
	}
	if !u.IsCapper() {
		return u, nil
	}
	stats, err := s.engine.RefreshScore(ctx, followeeID)
	if err != nil {
		// The edge is stored; the next recompute fixes the score.
		s.logger.Error(ctx, "refresh clout after follow change",
			logger.String("capper_id", followeeID), logger.Error(err))
		return u, nil
	}
	u.Stats = stats
	return u, nil
}

// Followers pages the users following userID.
func (s *Service) Followers(ctx context.Context, userID string, p types.Page) ([]model.User, types.Pagination, error) {
	users, total, err := s.store.ListFollowers(ctx, userID, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return users, types.NewPagination(p, total), nil
}

// Following pages the users userID follows.
func (s *Service) Following(ctx context.Context, userID string, p types.Page) ([]model.User, types.Pagination, error) {
	users, total, err := s.store.ListFollowing(ctx, userID, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return users, types.NewPagination(p, total), nil
}

// Leaderboard pages cappers by stored clout score.
func (s *Service) Leaderboard(ctx context.Context, p types.Page) ([]types.Entry, types.Pagination, error) {
	entries, total, err := s.store.TopCappers(ctx, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return entries, types.NewPagination(p, total), nil
}

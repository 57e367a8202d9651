package api

import (
	"context"
	"net/http"

	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, u model.User) {
	writeJSON(w, http.StatusOK, privateUser(u))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request, u model.User) {
	const op = "api.update_me"
	var req profileRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.deps.UpdateProfile(r.Context(), u.ID, service.ProfileInput{
		Username: req.Username,
		Bio:      req.Bio,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, privateUser(updated))
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request, u model.User) {
	followee, err := s.deps.Follow(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.follow", err))
		return
	}
	writeJSON(w, http.StatusOK, publicUser(followee))
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request, u model.User) {
	followee, err := s.deps.Unfollow(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.unfollow", err))
		return
	}
	writeJSON(w, http.StatusOK, publicUser(followee))
}

type followLister func(ctx context.Context, userID string, p types.Page) ([]model.User, types.Pagination, error)

func (s *Server) listFollow(op string, list followLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.page(r, op)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		users, pg, err := list(r.Context(), r.PathValue("id"), p)
		if err != nil {
			s.fail(w, r, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, listResponse[userResponse]{Data: publicUsers(users), Pagination: pg})
	}
}

func (s *Server) handleFollowers(w http.ResponseWriter, r *http.Request) {
	s.listFollow("api.followers", s.deps.Followers)(w, r)
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	s.listFollow("api.following", s.deps.Following)(w, r)
}

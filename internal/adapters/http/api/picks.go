package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/clout/internal/adapters/repository"
	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/domain/model"
)

// handleListPicks handles GET /picks?organization&pending&page&limit.
func (s *Server) handleListPicks(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_picks"
	p, err := s.page(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pending, err := boolQuery(r, "pending", op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	f := repository.PickFilter{
		EventID:      q.Get("eventId"),
		Organization: model.Organization(q.Get("organization")),
		Pending:      pending,
	}
	if f.Organization != "" && !f.Organization.Valid() {
		s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown organization %q", f.Organization)))
		return
	}
	picks, pg, err := s.deps.ListPicks(r.Context(), f, p)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse[pickResponse]{Data: newPickResponses(picks), Pagination: pg})
}

func (s *Server) handleGetPick(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.GetPick(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.get_pick", err))
		return
	}
	writeJSON(w, http.StatusOK, newPickResponse(p))
}

func (s *Server) handleCreatePick(w http.ResponseWriter, r *http.Request, u model.User) {
	const op = "api.create_pick"
	var req pickRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.FightIndex == nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("fightIndex is required")))
		return
	}
	p, err := s.deps.CreatePick(r.Context(), u, service.PickInput{
		EventID:    req.EventID,
		FightIndex: *req.FightIndex,
		Prediction: req.Prediction,
		Analysis:   req.Analysis,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, newPickResponse(p))
}

func (s *Server) handleUpdatePick(w http.ResponseWriter, r *http.Request, u model.User) {
	const op = "api.update_pick"
	var req pickUpdateRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.deps.UpdatePick(r.Context(), u.ID, r.PathValue("id"), service.PickUpdate{
		Prediction: req.Prediction,
		Analysis:   req.Analysis,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newPickResponse(p))
}

func (s *Server) handleDeletePick(w http.ResponseWriter, r *http.Request, u model.User) {
	if err := s.deps.DeletePick(r.Context(), u.ID, r.PathValue("id")); err != nil {
		s.fail(w, r, Wrap("api.delete_pick", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request, u model.User) {
	n, err := s.deps.LikePick(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.like_pick", err))
		return
	}
	writeJSON(w, http.StatusOK, likesResponse{Likes: n})
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request, u model.User) {
	n, err := s.deps.UnlikePick(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.unlike_pick", err))
		return
	}
	writeJSON(w, http.StatusOK, likesResponse{Likes: n})
}

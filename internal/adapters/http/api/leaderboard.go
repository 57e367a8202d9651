package api

import (
	"net/http"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/types"
)

// handleLeaderboard handles GET /leaderboard?page&limit.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard"
	p, err := s.page(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entries, pg, err := s.deps.Leaderboard(r.Context(), p)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse[types.Entry]{Data: entries, Pagination: pg})
}

// handleCapperProfile handles GET /cappers/{id}.
func (s *Server) handleCapperProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.deps.CapperProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.capper_profile", err))
		return
	}
	writeJSON(w, http.StatusOK, capperProfileResponse{
		Capper:       publicUser(prof.User),
		Rank:         prof.Rank,
		PendingPicks: prof.PendingPicks,
		RecentPicks:  newPickResponses(prof.RecentPicks),
	})
}

// handleCapperPicks handles GET /cappers/{id}/picks.
func (s *Server) handleCapperPicks(w http.ResponseWriter, r *http.Request) {
	const op = "api.capper_picks"
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
	picks, pg, err := s.deps.ListPicks(r.Context(),
		repository.PickFilter{CapperID: r.PathValue("id"), Pending: pending}, p)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse[pickResponse]{Data: newPickResponses(picks), Pagination: pg})
}

package api

import (
	"net/http"
	"time"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/verification"
)

type runReportResponse struct {
	Events       int    `json:"events"`
	FailedEvents int    `json:"failedEvents"`
	Considered   int    `json:"considered"`
	Verified     int    `json:"verified"`
	Correct      int    `json:"correct"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	Recomputed   int    `json:"recomputed"`
	Cancelled    bool   `json:"cancelled"`
	Duration     string `json:"duration"`
}

func newRunReportResponse(r verification.RunReport) runReportResponse {
	return runReportResponse{
		Events:       r.Events,
		FailedEvents: r.FailedEvents,
		Considered:   r.Considered,
		Verified:     r.Verified,
		Correct:      r.Correct,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
		Recomputed:   r.Recomputed,
		Cancelled:    r.Cancelled,
		Duration:     r.Duration.Round(time.Millisecond).String(),
	}
}

// handleVerifyNow handles POST /admin/verify.
func (s *Server) handleVerifyNow(w http.ResponseWriter, r *http.Request, _ model.User) {
	rep, err := s.deps.VerifyNow(r.Context())
	if err != nil {
		s.fail(w, r, Wrap("api.verify_now", err))
		return
	}
	writeJSON(w, http.StatusOK, newRunReportResponse(rep))
}

// handleRecompute handles POST /admin/cappers/{id}/recompute.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request, _ model.User) {
	stats, err := s.deps.RecomputeCapper(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.recompute", err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

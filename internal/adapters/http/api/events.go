package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/clout/internal/adapters/repository"
	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/domain/model"
)

// handleListEvents handles GET /events?status&organization&page&limit.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	p, err := s.page(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	f := repository.EventFilter{
		Status:       model.EventStatus(q.Get("status")),
		Organization: model.Organization(q.Get("organization")),
	}
	if f.Status != "" && !f.Status.Valid() {
		s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown status %q", f.Status)))
		return
	}
	if f.Organization != "" && !f.Organization.Valid() {
		s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown organization %q", f.Organization)))
		return
	}
	events, pg, err := s.deps.ListEvents(r.Context(), f, p)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResponse(e))
	}
	writeJSON(w, http.StatusOK, listResponse[eventResponse]{Data: out, Pagination: pg})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.get_event", err))
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(e))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, _ model.User) {
	const op = "api.create_event"
	var req eventRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.deps.CreateEvent(r.Context(), service.EventInput{
		ExternalID:   req.ExternalID,
		Name:         req.Name,
		Organization: req.Organization,
		Date:         req.Date,
		Venue:        req.Venue,
		Location:     req.Location,
		Fights:       req.Fights,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, newEventResponse(e))
}

func (s *Server) handleSetEventStatus(w http.ResponseWriter, r *http.Request, _ model.User) {
	const op = "api.set_event_status"
	var req statusRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.deps.SetEventStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(e))
}

func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request, _ model.User) {
	const op = "api.record_result"
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("fight index must be an integer")))
		return
	}
	var req resultRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.deps.RecordFightResult(r.Context(), r.PathValue("id"), index, service.ResultInput{
		Winner: req.Winner,
		Method: req.Method,
		Round:  req.Round,
		Time:   req.Time,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(e))
}

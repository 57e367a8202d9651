package api

import (
	"net/http"

	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/domain/model"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	const op = "api.signup"
	var req signupRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.deps.Signup(r.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req loginRequest
	if err := decodeJSON(r, w, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.deps.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ model.User) {
	if err := s.deps.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		s.fail(w, r, Wrap("api.logout", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCSRF(w http.ResponseWriter, r *http.Request, u model.User) {
	token, err := s.deps.IssueCSRF(r.Context(), u.ID)
	if err != nil {
		s.fail(w, r, Wrap("api.csrf", err))
		return
	}
	writeJSON(w, http.StatusOK, csrfResponse{Token: token})
}

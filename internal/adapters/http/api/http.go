// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/clout/internal/adapters/repository"
	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
	"github.com/okian/clout/internal/domain/verification"
	"github.com/okian/clout/pkg/logger"
)

// Pagination defaults.
const (
	defaultPageLimit = 10
	defaultMaxLimit  = 100
	maxBodyBytes     = 1 << 20
)

// AccountDependencies covers sessions, profiles and the follow graph.
type AccountDependencies interface {
	Signup(ctx context.Context, in service.SignupInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (model.User, error)
	IssueCSRF(ctx context.Context, userID string) (string, error)
	VerifyCSRF(ctx context.Context, userID, token string) error
	GetUser(ctx context.Context, id string) (model.User, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (model.User, error)
	CapperProfile(ctx context.Context, capperID string) (service.CapperProfile, error)
	Follow(ctx context.Context, followerID, followeeID string) (model.User, error)
	Unfollow(ctx context.Context, followerID, followeeID string) (model.User, error)
	Followers(ctx context.Context, userID string, p types.Page) ([]model.User, types.Pagination, error)
	Following(ctx context.Context, userID string, p types.Page) ([]model.User, types.Pagination, error)
	Leaderboard(ctx context.Context, p types.Page) ([]types.Entry, types.Pagination, error)
}

// EventDependencies covers event cards and results.
type EventDependencies interface {
	CreateEvent(ctx context.Context, in service.EventInput) (model.Event, error)
	GetEvent(ctx context.Context, id string) (model.Event, error)
	ListEvents(ctx context.Context, f repository.EventFilter, p types.Page) ([]model.Event, types.Pagination, error)
	SetEventStatus(ctx context.Context, eventID string, status model.EventStatus) (model.Event, error)
	RecordFightResult(ctx context.Context, eventID string, fightIndex int, in service.ResultInput) (model.Event, error)
}

// PickDependencies covers picks and likes.
type PickDependencies interface {
	CreatePick(ctx context.Context, capper model.User, in service.PickInput) (model.Pick, error)
	GetPick(ctx context.Context, id string) (model.Pick, error)
	ListPicks(ctx context.Context, f repository.PickFilter, p types.Page) ([]model.Pick, types.Pagination, error)
	UpdatePick(ctx context.Context, userID, pickID string, in service.PickUpdate) (model.Pick, error)
	DeletePick(ctx context.Context, userID, pickID string) error
	LikePick(ctx context.Context, userID, pickID string) (int, error)
	UnlikePick(ctx context.Context, userID, pickID string) (int, error)
}

// AdminDependencies covers operator actions.
type AdminDependencies interface {
	VerifyNow(ctx context.Context) (verification.RunReport, error)
	RecomputeCapper(ctx context.Context, capperID string) (model.CapperStats, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AccountDependencies
	EventDependencies
	PickDependencies
	AdminDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	maxLimit int
	logger   logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// Option configures the Server.
type Option func(*Server)

// WithMaxPageLimit caps ?limit on paged endpoints.
func WithMaxPageLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		maxLimit:      defaultMaxLimit,
		logger:        logger.Get().Named("api"),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	public := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}
	user := func(pattern, endpoint string, h authedHandler) {
		public(pattern, endpoint, s.requireUser(h))
	}
	mutate := func(pattern, endpoint string, h authedHandler, roles ...model.Role) {
		public(pattern, endpoint, s.requireUser(s.requireRole(s.requireCSRF(h), roles...)))
	}

	public("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	public("GET /health", "health", s.healthHandler.HandleLiveness)
	public("GET /stats", "stats", s.statsHandler.HandleStats)

	public("POST /auth/signup", "auth_signup", s.handleSignup)
	public("POST /auth/login", "auth_login", s.handleLogin)
	user("POST /auth/logout", "auth_logout", s.handleLogout)
	user("GET /auth/csrf", "auth_csrf", s.handleCSRF)

	public("GET /leaderboard", "leaderboard", s.handleLeaderboard)
	public("GET /cappers/{id}", "capper", s.handleCapperProfile)
	public("GET /cappers/{id}/picks", "capper_picks", s.handleCapperPicks)

	user("GET /users/me", "users_me", s.handleMe)
	mutate("PATCH /users/me", "users_me", s.handleUpdateMe)
	mutate("POST /users/{id}/follow", "follow", s.handleFollow)
	mutate("DELETE /users/{id}/follow", "follow", s.handleUnfollow)
	public("GET /users/{id}/followers", "followers", s.handleFollowers)
	public("GET /users/{id}/following", "following", s.handleFollowing)

	public("GET /events", "events", s.handleListEvents)
	public("GET /events/{id}", "event", s.handleGetEvent)
	mutate("POST /events", "events", s.handleCreateEvent, model.RoleAdmin)
	mutate("PUT /events/{id}/status", "event_status", s.handleSetEventStatus, model.RoleAdmin)
	mutate("PUT /events/{id}/fights/{index}/result", "fight_result", s.handleRecordResult, model.RoleAdmin)

	public("GET /picks", "picks", s.handleListPicks)
	public("GET /picks/{id}", "pick", s.handleGetPick)
	mutate("POST /picks", "picks", s.handleCreatePick, model.RoleCapper)
	mutate("PATCH /picks/{id}", "pick", s.handleUpdatePick)
	mutate("DELETE /picks/{id}", "pick", s.handleDeletePick)
	mutate("POST /picks/{id}/like", "pick_like", s.handleLike)
	mutate("DELETE /picks/{id}/like", "pick_like", s.handleUnlike)

	mutate("POST /admin/verify", "admin_verify", s.handleVerifyNow, model.RoleAdmin)
	mutate("POST /admin/cappers/{id}/recompute", "admin_recompute", s.handleRecompute, model.RoleAdmin)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listResponse[T any] struct {
	Data       []T              `json:"data"`
	Pagination types.Pagination `json:"pagination"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err to a response. Server errors are logged and their message
// is not sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		op := ""
		var apiErr *Error
		if errors.As(err, &apiErr) {
			op = apiErr.Op
		}
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op), logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

func decodeJSON(r *http.Request, w http.ResponseWriter, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadJSON, err)
	}
	return nil
}

// page reads ?page and ?limit. Missing values default to page 1 and
// defaultPageLimit.
func (s *Server) page(r *http.Request, op string) (types.Page, error) {
	p := types.Page{Page: 1, Limit: defaultPageLimit}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, WrapKind(op, ErrBadPage, fmt.Errorf("page must be a positive integer"))
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, WrapKind(op, ErrBadPage, fmt.Errorf("limit must be a positive integer"))
		}
		if n > s.maxLimit {
			return p, WrapKind(op, ErrBadPage, fmt.Errorf("limit cannot exceed %d", s.maxLimit))
		}
		p.Limit = n
	}
	return p, nil
}

func boolQuery(r *http.Request, key, op string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, WrapKind(op, ErrBadRequest, fmt.Errorf("%s must be a boolean", key))
	}
	return &b, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/clout/internal/auth"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/pkg/metrics"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusUnauthorized    = 401
	statusForbidden       = 403
	statusNotFound        = 404
	statusConflict        = 409
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// CSRFHeader carries the token issued by GET /auth/csrf.
const CSRFHeader = "X-CSRF-Token"

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if wrapped.statusCode >= statusBadRequest {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, getErrorType(wrapped.statusCode))
		}
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusUnauthorized:
		return "unauthenticated"
	case statusCode == statusForbidden:
		return "forbidden"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode == statusConflict:
		return "conflict"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// authedHandler is a handler that runs for an authenticated user.
type authedHandler func(w http.ResponseWriter, r *http.Request, u model.User)

type tokenKey struct{}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// requireUser resolves the bearer token to a user or answers 401.
func (s *Server) requireUser(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.require_user"
		token := bearerToken(r)
		if token == "" {
			s.fail(w, r, NewKind(op, auth.ErrUnauthenticated))
			return
		}
		u, err := s.deps.Authenticate(r.Context(), token)
		if err != nil {
			s.fail(w, r, Wrap(op, err))
			return
		}
		next(w, r.WithContext(withToken(r.Context(), token)), u)
	}
}

// requireRole answers 403 unless the user has one of roles. No roles means
// any authenticated user.
func (s *Server) requireRole(next authedHandler, roles ...model.Role) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, u model.User) {
		if len(roles) > 0 && !slices.Contains(roles, u.Role) {
			s.fail(w, r, WrapKind("api.require_role", model.ErrForbidden,
				fmt.Errorf("requires role %v", roles)))
			return
		}
		next(w, r, u)
	}
}

// requireCSRF checks X-CSRF-Token against the token issued to the user.
func (s *Server) requireCSRF(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, u model.User) {
		if err := s.deps.VerifyCSRF(r.Context(), u.ID, r.Header.Get(CSRFHeader)); err != nil {
			s.fail(w, r, Wrap("api.require_csrf", err))
			return
		}
		next(w, r, u)
	}
}

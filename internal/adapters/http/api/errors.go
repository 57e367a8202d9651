package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/auth"
	"github.com/okian/clout/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadJSON    = errors.New("malformed json body")
	ErrBadPage    = errors.New("invalid pagination")
)

// Error is a failed API operation. Op names the handler; Kind is the
// sentinel the status is derived from.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Kind.Error()
	case e.Kind == nil:
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches op to err.
func Wrap(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// Ordered: the first match wins.
var errorTable = []errorMapping{
	{ErrBadJSON, http.StatusBadRequest, "bad_request"},
	{ErrBadPage, http.StatusBadRequest, "bad_request"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{model.ErrInvalidInput, http.StatusBadRequest, "validation_error"},
	{model.ErrInvalidFight, http.StatusBadRequest, "invalid_fight"},
	{repository.ErrInvalidLimit, http.StatusBadRequest, "bad_request"},
	{repository.ErrSelfFollow, http.StatusBadRequest, "self_follow"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{auth.ErrCSRFMissing, http.StatusForbidden, "csrf_missing"},
	{auth.ErrCSRFInvalid, http.StatusForbidden, "csrf_invalid"},
	{model.ErrForbidden, http.StatusForbidden, "forbidden"},
	{model.ErrNotFound, http.StatusNotFound, "not_found"},
	{model.ErrPickLocked, http.StatusConflict, "pick_locked"},
	{model.ErrAlreadyVerified, http.StatusConflict, "pick_locked"},
	{model.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{model.ErrDuplicate, http.StatusConflict, "duplicate"},
	{repository.ErrAlreadyFollowing, http.StatusConflict, "already_following"},
	{repository.ErrNotFollowing, http.StatusConflict, "not_following"},
	{repository.ErrAlreadyLiked, http.StatusConflict, "already_liked"},
	{repository.ErrNotLiked, http.StatusConflict, "not_liked"},
}

// statusFor maps err to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

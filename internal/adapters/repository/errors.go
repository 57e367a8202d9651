package repository

import (
	"errors"

	"github.com/okian/clout/internal/domain/model"
)

// Sentinel kinds for store errors. Domain-level kinds alias the model
// package so callers outside the adapters can match them.
var (
	ErrNotFound          = model.ErrNotFound
	ErrDuplicate         = model.ErrDuplicate
	ErrPickLocked        = model.ErrPickLocked
	ErrAlreadyVerified   = model.ErrAlreadyVerified
	ErrInvalidTransition = model.ErrInvalidTransition
	ErrInvalidFight      = model.ErrInvalidFight

	ErrInvalidLimit     = errors.New("invalid page limit")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrNotLiked         = errors.New("not liked")
)

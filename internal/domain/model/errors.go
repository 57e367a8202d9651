package model

import "errors"

// Domain errors shared by stores and the services that call them.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("already exists")
	ErrPickLocked        = errors.New("pick is verified and can no longer change")
	ErrAlreadyVerified   = errors.New("pick already verified")
	ErrInvalidTransition = errors.New("invalid event status transition")
	ErrInvalidFight      = errors.New("fight index out of range")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
)

// StatsFunc derives new stats from the current state of a capper. Stores run
// it while the capper is locked; it must not call back into the store.
type StatsFunc func(current User) (CapperStats, error)

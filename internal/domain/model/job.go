package model

import "time"

// VerificationJob asks the workers to verify the picks of one event.
type VerificationJob struct {
	EventID    string
	Reason     string
	EnqueuedAt time.Time
}

// PickVerified is published after a pick receives its outcome.
type PickVerified struct {
	PickID     string    `json:"pick_id"`
	CapperID   string    `json:"capper_id"`
	EventID    string    `json:"event_id"`
	IsCorrect  bool      `json:"is_correct"`
	VerifiedAt time.Time `json:"verified_at"`
}

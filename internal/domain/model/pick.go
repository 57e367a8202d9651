package model

import "time"

// Prediction bounds.
const (
	MinConfidence  = 1
	MaxConfidence  = 10
	MaxAnalysisLen = 2000
)

// Prediction is what a capper forecast for a fight. Method and Round are
// optional; only predicted parts are checked during verification.
type Prediction struct {
	Winner     string   `json:"winner"`
	Method     *Method  `json:"method,omitempty"`
	Round      *int     `json:"round,omitempty"`
	Odds       *float64 `json:"odds,omitempty"`
	Confidence int      `json:"confidence"`
}

// VerifiedOutcome is the immutable verdict attached to a pick.
type VerifiedOutcome struct {
	Winner     string    `json:"winner"`
	Method     Method    `json:"method"`
	Round      *int      `json:"round,omitempty"`
	VerifiedAt time.Time `json:"verifiedAt"`
	IsCorrect  bool      `json:"isCorrect"`
}

// FightEvent is a display snapshot of the event taken when the pick was made.
type FightEvent struct {
	EventName    string       `json:"eventName"`
	Date         time.Time    `json:"date"`
	Fighters     [2]string    `json:"fighters"`
	Organization Organization `json:"organization"`
}

// Pick is a capper's prediction on one fight of an event.
type Pick struct {
	ID       string
	CapperID string
	EventID  string
	// FightIndex selects the fight on the event card; nil on legacy picks.
	FightIndex      *int
	FightEvent      FightEvent
	Prediction      Prediction
	Analysis        string
	Likes           int
	VerifiedOutcome *VerifiedOutcome
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Verified reports whether the pick has been resolved.
func (p *Pick) Verified() bool { return p.VerifiedOutcome != nil }

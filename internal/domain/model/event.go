package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventLive      EventStatus = "live"
	EventCompleted EventStatus = "completed"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventLive, EventCompleted:
		return true
	}
	return false
}

func (s EventStatus) order() int {
	switch s {
	case EventUpcoming:
		return 0
	case EventLive:
		return 1
	case EventCompleted:
		return 2
	}
	return -1
}

// CanTransition reports whether an event may move from s to next.
// Status only moves forward.
func (s EventStatus) CanTransition(next EventStatus) bool {
	return s.Valid() && next.Valid() && next.order() > s.order()
}

// Organization is the promoter or league of an event.
type Organization string

const (
	OrgUFC      Organization = "UFC"
	OrgBellator Organization = "Bellator"
	OrgONE      Organization = "ONE"
	OrgPFL      Organization = "PFL"
	OrgBoxing   Organization = "Boxing"
	OrgOther    Organization = "Other"
)

// Valid reports whether o is a known organization.
func (o Organization) Valid() bool {
	switch o {
	case OrgUFC, OrgBellator, OrgONE, OrgPFL, OrgBoxing, OrgOther:
		return true
	}
	return false
}

// Method is how a fight ended.
type Method string

const (
	MethodKOTKO      Method = "KO/TKO"
	MethodSubmission Method = "Submission"
	MethodDecision   Method = "Decision"
	MethodDraw       Method = "Draw"
	MethodNoContest  Method = "No Contest"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodKOTKO, MethodSubmission, MethodDecision, MethodDraw, MethodNoContest:
		return true
	}
	return false
}

// NoWinner reports whether a fight ending this way has no winner.
func (m Method) NoWinner() bool {
	return m == MethodDraw || m == MethodNoContest
}

// Round bounds shared by predictions and results.
const (
	MinRound = 1
	MaxRound = 12
)

// Fighter is one side of a fight.
type Fighter struct {
	Name   string   `json:"name" yaml:"name"`
	Record string   `json:"record,omitempty" yaml:"record"`
	Odds   *float64 `json:"odds,omitempty" yaml:"odds"`
}

// FightResult is the official outcome of a fight.
type FightResult struct {
	Winner     string    `json:"winner,omitempty"`
	Method     Method    `json:"method"`
	Round      *int      `json:"round,omitempty"`
	Time       string    `json:"time,omitempty"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// Complete reports whether the result carries the fields verification needs.
// Draws and no contests are complete without a winner.
func (r *FightResult) Complete() bool {
	return r != nil && r.Method != "" && (r.Winner != "" || r.Method.NoWinner())
}

// Fight is a bout on an event card.
type Fight struct {
	Fighter1        Fighter      `json:"fighter1" yaml:"fighter1"`
	Fighter2        Fighter      `json:"fighter2" yaml:"fighter2"`
	WeightClass     string       `json:"weightClass,omitempty" yaml:"weight_class"`
	ScheduledRounds int          `json:"scheduledRounds,omitempty" yaml:"scheduled_rounds"`
	Result          *FightResult `json:"result,omitempty" yaml:"-"`
}

// HasFighter reports whether name is one of the two fighters.
func (f *Fight) HasFighter(name string) bool {
	return name != "" && (f.Fighter1.Name == name || f.Fighter2.Name == name)
}

// Event is a card of fights.
type Event struct {
	ID           string
	ExternalID   string
	Name         string
	Organization Organization
	Date         time.Time
	Venue        string
	Location     string
	Fights       []Fight
	Status       EventStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasResults reports whether at least one fight has a recorded result.
func (e *Event) HasResults() bool {
	for i := range e.Fights {
		if e.Fights[i].Result != nil {
			return true
		}
	}
	return false
}

// Fight returns the fight at index i, or false when out of range.
func (e *Event) Fight(i int) (*Fight, bool) {
	if i < 0 || i >= len(e.Fights) {
		return nil, false
	}
	return &e.Fights[i], true
}

package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/clout/internal/domain/model"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 6
	maxBioLen      = 500
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{model.ErrInvalidInput}, args...)...)
}

// SignupInput is a new account request. Role may be user or capper.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

func validateUsername(name string) error {
	if n := utf8.RuneCountInString(name); n < minUsernameLen || n > maxUsernameLen {
		return invalid("username must be between %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if !usernamePattern.MatchString(name) {
		return invalid("username can only contain letters, numbers, and underscores")
	}
	return nil
}

func (in *SignupInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = model.RoleUser
	}

	if err := validateUsername(in.Username); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return invalid("please provide a valid email")
	}
	if len(in.Password) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	if in.Role != model.RoleUser && in.Role != model.RoleCapper {
		return invalid("role must be either capper or user")
	}
	return nil
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	Username *string
	Bio      *string
}

// EventInput creates an event.
type EventInput struct {
	ExternalID   string
	Name         string
	Organization model.Organization
	Date         time.Time
	Venue        string
	Location     string
	Fights       []model.Fight
}

func (in *EventInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return invalid("event name is required")
	case !in.Organization.Valid():
		return invalid("unknown organization %q", in.Organization)
	case in.Date.IsZero():
		return invalid("event date is required")
	case len(in.Fights) == 0:
		return invalid("an event needs at least one fight")
	}
	for i := range in.Fights {
		f := &in.Fights[i]
		if strings.TrimSpace(f.Fighter1.Name) == "" || strings.TrimSpace(f.Fighter2.Name) == "" {
			return invalid("fight %d needs two fighters", i)
		}
		if f.Fighter1.Name == f.Fighter2.Name {
			return invalid("fight %d has the same fighter twice", i)
		}
		if f.ScheduledRounds < 0 || f.ScheduledRounds > model.MaxRound {
			return invalid("fight %d: scheduled rounds must be 0-%d", i, model.MaxRound)
		}
		f.Result = nil
	}
	return nil
}

// ResultInput records the official outcome of one fight.
type ResultInput struct {
	Winner string
	Method model.Method
	Round  *int
	Time   string
}

func validRound(r *int) bool {
	return r == nil || (*r >= model.MinRound && *r <= model.MaxRound)
}

func (in *ResultInput) validate(f *model.Fight) error {
	switch {
	case !in.Method.Valid():
		return invalid("unknown method %q", in.Method)
	case !validRound(in.Round):
		return invalid("round must be %d-%d", model.MinRound, model.MaxRound)
	}
	if in.Method.NoWinner() {
		if in.Winner != "" {
			return invalid("a %s has no winner", in.Method)
		}
		return nil
	}
	if !f.HasFighter(in.Winner) {
		return invalid("winner %q is not on this fight", in.Winner)
	}
	return nil
}

// PickInput creates a pick on one fight of an event.
type PickInput struct {
	EventID    string
	FightIndex int
	Prediction model.Prediction
	Analysis   string
}

func validatePrediction(p *model.Prediction, analysis string, f *model.Fight) error {
	switch {
	case !f.HasFighter(p.Winner):
		return invalid("winner %q is not on this fight", p.Winner)
	case p.Method != nil && !p.Method.Valid():
		return invalid("unknown method %q", *p.Method)
	case !validRound(p.Round):
		return invalid("round must be %d-%d", model.MinRound, model.MaxRound)
	case p.Confidence < model.MinConfidence || p.Confidence > model.MaxConfidence:
		return invalid("confidence must be %d-%d", model.MinConfidence, model.MaxConfidence)
	case p.Odds != nil && *p.Odds == 0:
		return invalid("odds cannot be zero")
	case utf8.RuneCountInString(analysis) > model.MaxAnalysisLen:
		return invalid("analysis cannot exceed %d characters", model.MaxAnalysisLen)
	}
	return nil
}

// PickUpdate replaces the editable fields of an open pick.
type PickUpdate struct {
	Prediction *model.Prediction
	Analysis   *string
}

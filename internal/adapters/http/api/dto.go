package api

import (
	"time"

	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/domain/model"
)

type userResponse struct {
	ID             string            `json:"id"`
	Username       string            `json:"username"`
	Email          string            `json:"email,omitempty"`
	Role           model.Role        `json:"role"`
	Bio            string            `json:"bio"`
	FollowerCount  int               `json:"followerCount"`
	FollowingCount int               `json:"followingCount"`
	Stats          model.CapperStats `json:"stats"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// publicUser omits the email address.
func publicUser(u model.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Username:       u.Username,
		Role:           u.Role,
		Bio:            u.Bio,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		Stats:          u.Stats,
		CreatedAt:      u.CreatedAt,
	}
}

func privateUser(u model.User) userResponse {
	out := publicUser(u)
	out.Email = u.Email
	return out
}

func publicUsers(us []model.User) []userResponse {
	out := make([]userResponse, 0, len(us))
	for _, u := range us {
		out = append(out, publicUser(u))
	}
	return out
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func newSessionResponse(s service.Session) sessionResponse {
	return sessionResponse{Token: s.Token, User: privateUser(s.User)}
}

type eventResponse struct {
	ID           string             `json:"id"`
	ExternalID   string             `json:"externalId,omitempty"`
	Name         string             `json:"name"`
	Organization model.Organization `json:"organization"`
	Date         time.Time          `json:"date"`
	Venue        string             `json:"venue,omitempty"`
	Location     string             `json:"location,omitempty"`
	Fights       []model.Fight      `json:"fights"`
	Status       model.EventStatus  `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func newEventResponse(e model.Event) eventResponse {
	return eventResponse{
		ID:           e.ID,
		ExternalID:   e.ExternalID,
		Name:         e.Name,
		Organization: e.Organization,
		Date:         e.Date,
		Venue:        e.Venue,
		Location:     e.Location,
		Fights:       e.Fights,
		Status:       e.Status,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

type pickResponse struct {
	ID              string                 `json:"id"`
	CapperID        string                 `json:"capperId"`
	EventID         string                 `json:"eventId"`
	FightIndex      *int                   `json:"fightIndex"`
	FightEvent      model.FightEvent       `json:"fightEvent"`
	Prediction      model.Prediction       `json:"prediction"`
	Analysis        string                 `json:"analysis,omitempty"`
	Likes           int                    `json:"likes"`
	Verified        bool                   `json:"verified"`
	VerifiedOutcome *model.VerifiedOutcome `json:"verifiedOutcome,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func newPickResponse(p model.Pick) pickResponse {
	return pickResponse{
		ID:              p.ID,
		CapperID:        p.CapperID,
		EventID:         p.EventID,
		FightIndex:      p.FightIndex,
		FightEvent:      p.FightEvent,
		Prediction:      p.Prediction,
		Analysis:        p.Analysis,
		Likes:           p.Likes,
		Verified:        p.Verified(),
		VerifiedOutcome: p.VerifiedOutcome,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func newPickResponses(ps []model.Pick) []pickResponse {
	out := make([]pickResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, newPickResponse(p))
	}
	return out
}

type capperProfileResponse struct {
	Capper       userResponse   `json:"capper"`
	Rank         int            `json:"rank"`
	PendingPicks int            `json:"pendingPicks"`
	RecentPicks  []pickResponse `json:"recentPicks"`
}

type signupRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

type eventRequest struct {
	ExternalID   string             `json:"externalId"`
	Name         string             `json:"name"`
	Organization model.Organization `json:"organization"`
	Date         time.Time          `json:"date"`
	Venue        string             `json:"venue"`
	Location     string             `json:"location"`
	Fights       []model.Fight      `json:"fights"`
}

type statusRequest struct {
	Status model.EventStatus `json:"status"`
}

type resultRequest struct {
	Winner string       `json:"winner"`
	Method model.Method `json:"method"`
	Round  *int         `json:"round"`
	Time   string       `json:"time"`
}

type pickRequest struct {
	EventID    string           `json:"eventId"`
	FightIndex *int             `json:"fightIndex"`
	Prediction model.Prediction `json:"prediction"`
	Analysis   string           `json:"analysis"`
}

type pickUpdateRequest struct {
	Prediction *model.Prediction `json:"prediction"`
	Analysis   *string           `json:"analysis"`
}

type likesResponse struct {
	Likes int `json:"likes"`
}

type csrfResponse struct {
	Token string `json:"csrfToken"`
}

// Package model contains domain models passed between layers.
package model

import "time"

// Role classifies an account.
type Role string

const (
	RoleUser   Role = "user"
	RoleCapper Role = "capper"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCapper, RoleAdmin:
		return true
	}
	return false
}

// CapperStats is the derived performance record of a capper. It is written
// only by the verification engine.
type CapperStats struct {
	TotalPicks   int     `json:"totalPicks"`
	CorrectPicks int     `json:"correctPicks"`
	WinRate      float64 `json:"winRate"`
	CloutScore   float64 `json:"cloutScore"`
}

// User is an account. A capper is a User with RoleCapper.
type User struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	Role           Role
	Bio            string
	FollowerCount  int
	FollowingCount int
	Stats          CapperStats
	// Seq orders accounts by creation; it breaks leaderboard ties.
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCapper reports whether the user posts picks.
func (u *User) IsCapper() bool { return u.Role == RoleCapper }

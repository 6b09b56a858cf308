package models

import "time"

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleCoach   UserRole = "coach"
	RolePlayer  UserRole = "player"
	RoleParent  UserRole = "parent"
	RoleBlogger UserRole = "blogger"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RolePlayer, RoleParent, RoleBlogger:
		return true
	}
	return false
}

// User carries the optional email and shirt number as pointers: a store that
// has not been migrated yet simply leaves them nil, callers never see a
// different shape.
type User struct {
	ID                   int             `json:"id"`
	Username             string          `json:"username"`
	PasswordHash         string          `json:"-"`
	Role                 UserRole        `json:"role"`
	PlayerCategory       *PlayerCategory `json:"playerCategory"`
	ShirtNumber          *int            `json:"shirtNumber"`
	Email                *string         `json:"email"`
	IsActive             bool            `json:"isActive"`
	LastPasswordChangeAt *time.Time      `json:"lastPasswordChangeAt,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// Identity is the authenticated subject extracted from a session token.
type Identity struct {
	ID             int             `json:"id"`
	Username       string          `json:"username"`
	Role           UserRole        `json:"role"`
	PlayerCategory *PlayerCategory `json:"playerCategory"`
}

// PlayerView is the public roster entry served by GET /players.
type PlayerView struct {
	ID          int             `json:"id"`
	Username    string          `json:"username"`
	FullName    string          `json:"fullName"`
	Category    *PlayerCategory `json:"category"`
	Position    string          `json:"position"`
	ShirtNumber *int            `json:"shirtNumber"`
	DateOfBirth string          `json:"dateOfBirth"`
	Stats       PlayerStats     `json:"stats"`
}

type PlayerStats struct {
	Matches      int `json:"matches"`
	Minutes      int `json:"minutes"`
	Goals        int `json:"goals"`
	YellowCards  int `json:"yellowCards"`
	SecondYellow int `json:"secondYellow"`
	RedCards     int `json:"redCards"`
}

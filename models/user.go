package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account row. Host is nil for local accounts and set for
// accounts known through federation.
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	UsernameLower string    `json:"-" db:"username_lower"`
	Host          *string   `json:"host" db:"host"`
	IsAdmin       bool      `json:"is_admin" db:"is_admin"`
	IsDisabled    bool      `json:"is_disabled" db:"is_disabled"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// IsLocal reports whether the account was registered on this instance.
func (u *User) IsLocal() bool {
	return u.Host == nil
}

// UsedUsername is a username that was held once and released.
// Username is stored case-folded.
type UsedUsername struct {
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type UsernameAvailableRequest struct {
	Username string `json:"username" query:"username" validate:"required,localusername"`
}

type UsernameAvailableResponse struct {
	Available bool `json:"available"`
}

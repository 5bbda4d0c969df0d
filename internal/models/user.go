package models

import (
	"slices"
	"time"
)

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	PasswordHash        string    `json:"passwordHash"`
	Role                Role      `json:"role"`
	RegisteredAddresses []string  `json:"registeredAddresses"`
	CreatedAt           time.Time `json:"createdAt"`
}

// HasAddress reports whether residentID was granted to the user.
func (u User) HasAddress(residentID string) bool {
	return slices.Contains(u.RegisteredAddresses, residentID)
}

// Public strips the password digest for responses.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

package models

import "time"

// Account represents a registered user account.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

package models

import "time"

// User represents a row in the users table.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// RememberToken is a row in the auth_tokens table. Only the hash of the
// validator half of the bearer token is ever stored.
type RememberToken struct {
	UserID    int64     `json:"user_id"`
	Selector  string    `json:"selector"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t *RememberToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// LoginRequest carries the fields of the login form.
type LoginRequest struct {
	Email    string
	Password string
	Remember bool
}

// SignupRequest carries the fields of the signup form.
type SignupRequest struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrAlreadyRegistered = errors.New("username or email already registered")
	ErrInvalidToken      = errors.New("invalid or expired registration token")
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	Address      string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PendingUser is the registration payload stashed behind an activation token
// until the email link is followed. No users row exists before activation.
type PendingUser struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhoneNumber  string `json:"phone_number"`
	Address      string `json:"address"`
}

type Profile struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
}

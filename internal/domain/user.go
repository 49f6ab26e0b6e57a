// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxNameLen  = 72
	MaxEmailLen = 254
)

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
	ErrEmailEmpty  = errors.New("email empty")
)

type UserID string

type User struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	// PasswordHash never leaves the store layer.
	PasswordHash string `json:"-"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// Email is normalized to lowercase, matching how store lookups are keyed.
func NewUser(name, email string) (*User, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	email = NormalizeEmail(email)
	if email == "" || len(email) > MaxEmailLen {
		return nil, ErrEmailEmpty
	}
	return &User{ID: UserID(uuid.NewString()), Name: name, Email: email}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

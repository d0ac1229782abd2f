package domain

import (
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is the public projection of a user embedded in other records.
type UserRef struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// Ref projects u into a UserRef.
func (u User) Ref() UserRef {
	return UserRef{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// Name joins first and last name, falling back to the username.
func (r UserRef) Name() string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		return r.Username
	}
	return name
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

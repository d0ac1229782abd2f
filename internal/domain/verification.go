package domain

import "time"

// Verification is the single live email verification record of a user.
type Verification struct {
	UserID             string
	HashedUniqueString string
	ExpiresAt          time.Time
	CreatedAt          time.Time
}

// Expired reports whether the record is past its expiry at now.
func (v Verification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

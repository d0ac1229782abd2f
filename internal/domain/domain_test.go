package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesKind(t *testing.T) {
	err := fmt.Errorf("create bounty: %w", Invalid("reward must be a positive number"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "reward must be a positive number", verr.Rule)
	assert.Equal(t, "create bounty: reward must be a positive number", err.Error())
}

func TestIDs(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 24)
	assert.True(t, IsValidID(id))
	assert.False(t, IsValidID("123"))
	assert.False(t, IsValidID(""))
}

func TestBountyPatch(t *testing.T) {
	assert.True(t, BountyPatch{}.Empty())

	title := "after"
	reward := 10.0
	p := BountyPatch{Title: &title, Reward: &reward}
	assert.False(t, p.Empty())

	b := Bounty{Title: "before", Description: "kept", Reward: 1}
	p.Apply(&b)
	assert.Equal(t, "after", b.Title)
	assert.Equal(t, "kept", b.Description)
	assert.Equal(t, 10.0, b.Reward)
}

func TestBountyStatusValid(t *testing.T) {
	assert.True(t, BountyStatusInProgress.Valid())
	assert.False(t, BountyStatus("DONE").Valid())
}

func TestUserRefName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", UserRef{FirstName: "Ada", LastName: "Lovelace"}.Name())
	assert.Equal(t, "ada", UserRef{Username: "ada"}.Name())
	assert.Equal(t, "ada@example.com", NormalizeEmail("  ADA@Example.com "))
}

func TestVerificationExpired(t *testing.T) {
	now := time.Now()
	v := Verification{ExpiresAt: now}
	assert.False(t, v.Expired(now))
	assert.True(t, v.Expired(now.Add(time.Nanosecond)))
}

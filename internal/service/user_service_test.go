package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bounty-board/internal/domain"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	r := newRepos(t)
	svc := NewUserService(r.users)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Username:  "ada",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     " Ada@Example.com",
		Password:  "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.IsVerified)

	got, err := svc.Authenticate(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "ghost@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc := NewUserService(newRepos(t).users)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_CheckUnique(t *testing.T) {
	r := newRepos(t)
	svc := NewUserService(r.users)
	ctx := context.Background()

	require.NoError(t, svc.CheckUnique(ctx, "taken@example.com"))
	newUser(t, r, "taken@example.com")

	err := svc.CheckUnique(ctx, " TAKEN@example.com ")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Register(ctx, RegisterInput{Email: "taken@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Verification.TTL)
	assert.Equal(t, time.Hour, cfg.Verification.SweepInterval)
	assert.False(t, cfg.Verification.ExposeToken)
	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	assert.Empty(t, cfg.Storage.Bucket)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOUNTY_DATABASE_DRIVER", " MONGO ")
	t.Setenv("BOUNTY_VERIFICATION_TTL", "30m")
	t.Setenv("BOUNTY_VERIFICATION_EXPOSETOKEN", "true")
	t.Setenv("BOUNTY_MAIL_PROVIDER", "SMTP")
	t.Setenv("BOUNTY_EVENTS_DRIVER", "nats")
	t.Setenv("BOUNTY_AUTH_JWTSECRET", "s3cret")
	t.Setenv("BOUNTY_REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Verification.TTL)
	assert.True(t, cfg.Verification.ExposeToken)
	assert.Equal(t, "smtp", cfg.Mail.Provider)
	assert.Equal(t, "nats", cfg.Events.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2, cfg.Redis.DB)
}

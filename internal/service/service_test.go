package service

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"bounty-board/internal/domain"
	"bounty-board/internal/repository"
	"bounty-board/internal/repository/sqlite"
)

type repos struct {
	users         repository.UserRepository
	verifications repository.VerificationRepository
	bounties      repository.BountyRepository
	submissions   repository.SubmissionRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := repos{
		users:         sqlite.NewUserRepository(db),
		verifications: sqlite.NewVerificationRepository(db),
		bounties:      sqlite.NewBountyRepository(db),
		submissions:   sqlite.NewSubmissionRepository(db),
	}
	ctx := context.Background()
	require.NoError(t, r.users.Init(ctx))
	require.NoError(t, r.verifications.Init(ctx))
	require.NoError(t, r.bounties.Init(ctx))
	require.NoError(t, r.submissions.Init(ctx))
	return r
}

func newUser(t *testing.T, r repos, email string) *domain.User {
	t.Helper()
	u := &domain.User{Username: "user", FirstName: "Grace", LastName: "Hopper", Email: email, PasswordHash: "x"}
	require.NoError(t, r.users.Create(context.Background(), u))
	return u
}

func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

type sentMail struct {
	to, subject, html string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, html: html})
	return nil
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeStorage) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = buf.Bytes()
	return "s3://test/" + key, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://example.test/" + key + "?signed=1", nil
}

type published struct {
	subject string
	data    any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{subject: subject, data: data})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.subject
	}
	return out
}

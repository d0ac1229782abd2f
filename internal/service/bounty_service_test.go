package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bounty-board/internal/domain"
	"bounty-board/internal/events"
)

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }
func timePtr(t time.Time) *time.Time { return &t }

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func validInput(reward float64, start, end time.Time) domain.BountyInput {
	return domain.BountyInput{
		Title:        strPtr("Fix flaky test"),
		Description:  strPtr("The CI job fails intermittently"),
		Reward:       floatPtr(reward),
		StartDate:    timePtr(start),
		EndDate:      timePtr(end),
		About:        strPtr("Backend"),
		Eligibility:  strPtr("Anyone"),
		Requirements: strPtr("A passing pipeline"),
		Procedure:    strPtr("Submit a link to the fix"),
	}
}

type bountyFixture struct {
	repos     repos
	svc       BountyService
	storage   *fakeStorage
	publisher *fakePublisher
	now       time.Time
}

func newBountyFixture(t *testing.T, withStorage bool) *bountyFixture {
	t.Helper()
	f := &bountyFixture{
		repos:     newRepos(t),
		publisher: &fakePublisher{},
		now:       baseTime.Add(time.Hour),
	}
	cfg := BountyConfig{
		Events: f.publisher,
		Logger: quietLogger(),
		Now:    func() time.Time { return f.now },
	}
	if withStorage {
		f.storage = &fakeStorage{}
		cfg.Storage = f.storage
	}
	f.svc = NewBountyService(f.repos.bounties, f.repos.submissions, f.repos.users, cfg)
	return f
}

func (f *bountyFixture) create(t *testing.T, reward float64) *domain.Bounty {
	t.Helper()
	creator := newUser(t, f.repos, domain.NewID()+"@example.com")
	b, err := f.svc.Create(context.Background(), creator.ID, validInput(reward, baseTime, baseTime.Add(7*24*time.Hour)))
	require.NoError(t, err)
	return b
}

func TestBountyService_CreateValid(t *testing.T) {
	f := newBountyFixture(t, false)
	creator := newUser(t, f.repos, "creator@example.com")

	b, err := f.svc.Create(context.Background(), creator.ID, validInput(50, baseTime, baseTime.Add(7*24*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, domain.BountyStatusOpen, b.Status)
	assert.Equal(t, creator.ID, b.CreatedBy)
	require.NotNil(t, b.Creator)
	assert.Equal(t, "creator@example.com", b.Creator.Email)
	assert.Empty(t, b.Submissions)
	assert.Equal(t, []string{events.SubjectBountyCreated}, f.publisher.subjects())
}

func TestBountyService_CreateRejectsInvalidInput(t *testing.T) {
	f := newBountyFixture(t, false)
	creator := newUser(t, f.repos, "creator@example.com")
	ctx := context.Background()

	missing := validInput(50, baseTime, baseTime.Add(time.Hour))
	missing.Procedure = nil
	missing.Title = strPtr("   ")

	reversed := validInput(50, baseTime.Add(time.Hour), baseTime)
	zero := validInput(0, baseTime, baseTime.Add(time.Hour))

	tests := []struct {
		name string
		in   domain.BountyInput
		rule string
	}{
		{"missing fields", missing, "missing required fields: title, procedure"},
		{"start after end", reversed, "start date cannot be after end date"},
		{"zero reward", zero, "reward must be a positive number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, creator.ID, tt.in)
			require.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.rule, verr.Rule)
		})
	}

	_, err := f.svc.Create(ctx, "nope", validInput(50, baseTime, baseTime.Add(time.Hour)))
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	list, err := f.svc.List(ctx, domain.BountyFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "rejected input must not be written")
}

func TestBountyService_ExampleFlow(t *testing.T) {
	f := newBountyFixture(t, false)
	ctx := context.Background()
	b := f.create(t, 50)
	assert.Equal(t, domain.BountyStatusOpen, b.Status)

	u1 := newUser(t, f.repos, "u1@example.com")

	res, err := f.svc.SubmitAnswer(ctx, b.ID, domain.SubmissionInput{Solution: "s", Wallet: "w", UserIDs: []string{u1.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Bounty answer submitted successfully", res.Message)
	require.NotNil(t, res.Submission.Bounty)
	assert.Equal(t, b.Title, res.Submission.Bounty.Title)
	require.Len(t, res.Submission.Users, 1)
	assert.Equal(t, "u1@example.com", res.Submission.Users[0].Email)

	got, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusInProgress, got.Status)
	assert.Equal(t, []string{res.Submission.ID}, got.Submissions)

	_, err = f.svc.SubmitAnswer(ctx, b.ID, domain.SubmissionInput{Solution: "s2", Wallet: "w2", UserIDs: []string{u1.ID}})
	require.ErrorIs(t, err, domain.ErrDuplicateSubmitter)
	assert.Contains(t, err.Error(), "one or more users have already submitted an answer for this bounty")

	got, err = f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, got.Submissions, 1)
}

func TestBountyService_SecondSubmissionKeepsStatus(t *testing.T) {
	f := newBountyFixture(t, false)
	ctx := context.Background()
	b := f.create(t, 50)

	_, err := f.svc.SubmitAnswer(ctx, b.ID, domain.SubmissionInput{Solution: "a", Wallet: "w", UserIDs: []string{domain.NewID()}})
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, b.ID, domain.SubmissionInput{Solution: "b", Wallet: "w", UserIDs: []string{domain.NewID()}})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusInProgress, got.Status)
	assert.Len(t, got.Submissions, 2)
}

func TestBountyService_SubmitRejections(t *testing.T) {
	ctx := context.Background()
	payload := domain.SubmissionInput{Solution: "s", Wallet: "w", UserIDs: []string{domain.NewID()}}

	t.Run("completed bounty", func(t *testing.T) {
		f := newBountyFixture(t, false)
		b := f.create(t, 50)
		_, err := f.svc.Complete(ctx, b.ID)
		require.NoError(t, err)

		_, err = f.svc.SubmitAnswer(ctx, b.ID, payload)
		assert.ErrorIs(t, err, domain.ErrBountyClosed)

		got, err := f.svc.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Submissions)
	})

	t.Run("past end date", func(t *testing.T) {
		f := newBountyFixture(t, false)
		b := f.create(t, 50)
		f.now = b.EndDate.Add(time.Second)

		_, err := f.svc.SubmitAnswer(ctx, b.ID, payload)
		assert.ErrorIs(t, err, domain.ErrBountyExpired)

		got, err := f.svc.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Submissions)
		assert.Equal(t, domain.BountyStatusOpen, got.Status)
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := newBountyFixture(t, false)
		b := f.create(t, 50)

		_, err := f.svc.SubmitAnswer(ctx, b.ID, domain.SubmissionInput{Solution: "s", Wallet: "w"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = f.svc.SubmitAnswer(ctx, b.ID, domain.SubmissionInput{Solution: "s", Wallet: "w", UserIDs: []string{"bad"}})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown bounty", func(t *testing.T) {
		f := newBountyFixture(t, false)
		_, err := f.svc.SubmitAnswer(ctx, domain.NewID(), payload)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = f.svc.SubmitAnswer(ctx, "not-an-id", payload)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})
}

func TestBountyService_SubmitCollapsesDuplicateUsers(t *testing.T) {
	f := newBountyFixture(t, false)
	b := f.create(t, 50)
	u := domain.NewID()

	res, err := f.svc.SubmitAnswer(context.Background(), b.ID, domain.SubmissionInput{Solution: "s", Wallet: "w", UserIDs: []string{u, u}})
	require.NoError(t, err)
	assert.Equal(t, []string{u}, res.Submission.UserIDs)
}

func TestBountyService_ListMinReward(t *testing.T) {
	f := newBountyFixture(t, false)
	ctx := context.Background()
	f.create(t, 20)
	hundred := f.create(t, 100)
	more := f.create(t, 250)

	list, err := f.svc.List(ctx, domain.BountyFilter{MinReward: floatPtr(100)})
	require.NoError(t, err)

	ids := make([]string, len(list))
	for i, b := range list {
		ids[i] = b.ID
		assert.GreaterOrEqual(t, b.Reward, 100.0)
		assert.NotNil(t, b.Creator)
	}
	assert.ElementsMatch(t, []string{hundred.ID, more.ID}, ids)

	_, err = f.svc.List(ctx, domain.BountyFilter{Status: "ARCHIVED"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBountyService_Update(t *testing.T) {
	f := newBountyFixture(t, false)
	ctx := context.Background()
	b := f.create(t, 50)

	updated, err := f.svc.Update(ctx, b.ID, domain.BountyPatch{Title: strPtr("  New title "), Reward: floatPtr(75)})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, 75.0, updated.Reward)
	assert.Equal(t, b.Description, updated.Description)
	assert.NotNil(t, updated.Creator)

	_, err = f.svc.Update(ctx, b.ID, domain.BountyPatch{StartDate: timePtr(b.EndDate.Add(time.Hour))})
	assert.ErrorIs(t, err, domain.ErrValidation, "start date checked against stored end date")

	_, err = f.svc.Update(ctx, b.ID, domain.BountyPatch{Reward: floatPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Update(ctx, b.ID, domain.BountyPatch{Title: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Update(ctx, domain.NewID(), domain.BountyPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	same, err := f.svc.Update(ctx, b.ID, domain.BountyPatch{})
	require.NoError(t, err)
	assert.Equal(t, "New title", same.Title)
}

func TestBountyService_Complete(t *testing.T) {
	f := newBountyFixture(t, false)
	ctx := context.Background()
	b := f.create(t, 50)

	done, err := f.svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusCompleted, done.Status)

	_, err = f.svc.Complete(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrBountyClosed)
	assert.Contains(t, f.publisher.subjects(), events.SubjectBountyCompleted)
}

func TestBountyService_ArchivesSubmission(t *testing.T) {
	f := newBountyFixture(t, true)
	ctx := context.Background()
	b := f.create(t, 50)

	res, err := f.svc.SubmitAnswer(ctx, b.ID, domain.SubmissionInput{Solution: "fix", Wallet: "0xabc", UserIDs: []string{domain.NewID()}})
	require.NoError(t, err)

	key := b.ID + "/" + res.Submission.ID + ".json"
	assert.Equal(t, key, res.Submission.ArchiveKey)
	require.Contains(t, f.storage.objects, key)

	var archived map[string]any
	require.NoError(t, json.Unmarshal(f.storage.objects[key], &archived))
	assert.Equal(t, "fix", archived["solution"])
	assert.Equal(t, b.Title, archived["bounty_title"])

	url, err := f.svc.ArchiveURL(ctx, res.Submission.ID)
	require.NoError(t, err)
	assert.Contains(t, url, key)
	assert.Contains(t, f.publisher.subjects(), events.SubjectSubmissionCreated)
}

func TestBountyService_ArchiveURLWithoutStorage(t *testing.T) {
	f := newBountyFixture(t, false)
	_, err := f.svc.ArchiveURL(context.Background(), domain.NewID())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

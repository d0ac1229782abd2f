package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bounty-board/internal/domain"
	"bounty-board/internal/events"
	"bounty-board/internal/metrics"
	"bounty-board/internal/repository"
	"bounty-board/internal/storage"
)

const (
	submissionAccepted = "Bounty answer submitted successfully"
	archiveURLTTL      = 15 * time.Minute
)

// SubmitResult is returned by a successful answer submission.
type SubmitResult struct {
	Message    string
	Submission *domain.Submission
}

// BountyService coordinates bounty level operations backed by repositories.
type BountyService interface {
	Create(ctx context.Context, creatorID string, in domain.BountyInput) (*domain.Bounty, error)
	Update(ctx context.Context, id string, patch domain.BountyPatch) (*domain.Bounty, error)
	List(ctx context.Context, filter domain.BountyFilter) ([]domain.Bounty, error)
	Get(ctx context.Context, id string) (*domain.Bounty, error)
	SubmitAnswer(ctx context.Context, bountyID string, in domain.SubmissionInput) (*SubmitResult, error)
	Complete(ctx context.Context, id string) (*domain.Bounty, error)
	ArchiveURL(ctx context.Context, submissionID string) (string, error)
}

// BountyConfig carries the optional collaborators of the bounty service.
type BountyConfig struct {
	Storage storage.Service
	Events  events.Publisher
	Metrics *metrics.Metrics
	Logger  *logrus.Logger
	Now     func() time.Time
}

type bountyService struct {
	cfg         BountyConfig
	bounties    repository.BountyRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
}

func NewBountyService(bounties repository.BountyRepository, submissions repository.SubmissionRepository, users repository.UserRepository, cfg BountyConfig) BountyService {
	if cfg.Events == nil {
		cfg.Events = events.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &bountyService{
		cfg:         cfg,
		bounties:    bounties,
		submissions: submissions,
		users:       users,
	}
}

func (s *bountyService) Create(ctx context.Context, creatorID string, in domain.BountyInput) (*domain.Bounty, error) {
	bounty, err := s.create(ctx, creatorID, in)
	if err != nil {
		return nil, fmt.Errorf("create bounty: %w", err)
	}
	return bounty, nil
}

func (s *bountyService) create(ctx context.Context, creatorID string, in domain.BountyInput) (*domain.Bounty, error) {
	if !domain.IsValidID(creatorID) {
		return nil, fmt.Errorf("creator: %w", domain.ErrInvalidID)
	}
	if err := validateBountyInput(in); err != nil {
		return nil, err
	}

	bounty := &domain.Bounty{
		Title:        strings.TrimSpace(*in.Title),
		Description:  strings.TrimSpace(*in.Description),
		Reward:       *in.Reward,
		StartDate:    in.StartDate.UTC(),
		EndDate:      in.EndDate.UTC(),
		Status:       domain.BountyStatusOpen,
		CreatedBy:    creatorID,
		About:        strings.TrimSpace(*in.About),
		Eligibility:  strings.TrimSpace(*in.Eligibility),
		Requirements: strings.TrimSpace(*in.Requirements),
		Procedure:    strings.TrimSpace(*in.Procedure),
		Submissions:  []string{},
	}
	if err := s.bounties.Create(ctx, bounty); err != nil {
		return nil, err
	}

	s.cfg.Metrics.BountyEvent("created")
	s.publish(ctx, events.SubjectBountyCreated, bountyEvent(bounty, s.cfg.Now()))
	s.cfg.Logger.WithFields(logrus.Fields{"bounty_id": bounty.ID, "created_by": creatorID}).Info("bounty created")

	if err := s.expandCreators(ctx, []*domain.Bounty{bounty}); err != nil {
		return nil, err
	}
	return bounty, nil
}

func (s *bountyService) Update(ctx context.Context, id string, patch domain.BountyPatch) (*domain.Bounty, error) {
	bounty, err := s.update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update bounty: %w", err)
	}
	return bounty, nil
}

func (s *bountyService) update(ctx context.Context, id string, patch domain.BountyPatch) (*domain.Bounty, error) {
	if !domain.IsValidID(id) {
		return nil, domain.ErrInvalidID
	}

	current, err := s.bounties.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateBountyPatch(current, patch); err != nil {
		return nil, err
	}

	if !patch.Empty() {
		if err := s.bounties.Update(ctx, id, trimPatch(patch)); err != nil {
			return nil, err
		}
	}

	updated, err := s.bounties.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.expandCreators(ctx, []*domain.Bounty{updated}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *bountyService) List(ctx context.Context, filter domain.BountyFilter) ([]domain.Bounty, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("fetch bounties: %w", domain.Invalid(fmt.Sprintf("unknown status %q", filter.Status)))
	}
	if filter.CreatedBy != "" && !domain.IsValidID(filter.CreatedBy) {
		return nil, fmt.Errorf("fetch bounties: createdBy: %w", domain.ErrInvalidID)
	}

	bounties, err := s.bounties.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch bounties: %w", err)
	}

	ptrs := make([]*domain.Bounty, len(bounties))
	for i := range bounties {
		ptrs[i] = &bounties[i]
	}
	if err := s.expandCreators(ctx, ptrs); err != nil {
		return nil, fmt.Errorf("fetch bounties: %w", err)
	}
	if bounties == nil {
		bounties = []domain.Bounty{}
	}
	return bounties, nil
}

func (s *bountyService) Get(ctx context.Context, id string) (*domain.Bounty, error) {
	if !domain.IsValidID(id) {
		return nil, fmt.Errorf("fetch bounty: %w", domain.ErrInvalidID)
	}
	bounty, err := s.bounties.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch bounty: %w", err)
	}
	if err := s.expandCreators(ctx, []*domain.Bounty{bounty}); err != nil {
		return nil, fmt.Errorf("fetch bounty: %w", err)
	}
	return bounty, nil
}

func (s *bountyService) SubmitAnswer(ctx context.Context, bountyID string, in domain.SubmissionInput) (*SubmitResult, error) {
	res, err := s.submitAnswer(ctx, bountyID, in)
	if err != nil {
		s.cfg.Metrics.Submission(submissionOutcome(err))
		return nil, fmt.Errorf("submit bounty answer: %w", err)
	}
	s.cfg.Metrics.Submission("accepted")
	return res, nil
}

func (s *bountyService) submitAnswer(ctx context.Context, bountyID string, in domain.SubmissionInput) (*SubmitResult, error) {
	if !domain.IsValidID(bountyID) {
		return nil, domain.ErrInvalidID
	}

	now := s.cfg.Now()
	sub := &domain.Submission{
		BountyID: bountyID,
		Solution: strings.TrimSpace(in.Solution),
		Wallet:   strings.TrimSpace(in.Wallet),
		UserIDs:  dedupe(in.UserIDs),
	}

	var bounty domain.Bounty
	err := s.submissions.CreateForBounty(ctx, sub, func(b *domain.Bounty) error {
		if b.Status == domain.BountyStatusCompleted {
			return domain.ErrBountyClosed
		}
		if now.After(b.EndDate) {
			return domain.ErrBountyExpired
		}
		if err := validateSubmission(sub); err != nil {
			return err
		}
		bounty = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.expandSubmission(ctx, sub, &bounty); err != nil {
		return nil, err
	}

	s.archive(ctx, sub)
	s.publish(ctx, events.SubjectSubmissionCreated, events.SubmissionEvent{
		SubmissionID: sub.ID,
		BountyID:     sub.BountyID,
		UserIDs:      sub.UserIDs,
		Wallet:       sub.Wallet,
		OccurredAt:   now.UTC(),
	})
	s.cfg.Logger.WithFields(logrus.Fields{
		"bounty_id":     bountyID,
		"submission_id": sub.ID,
		"users":         len(sub.UserIDs),
	}).Info("bounty answer submitted")

	return &SubmitResult{Message: submissionAccepted, Submission: sub}, nil
}

func (s *bountyService) Complete(ctx context.Context, id string) (*domain.Bounty, error) {
	bounty, err := s.complete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complete bounty: %w", err)
	}
	return bounty, nil
}

func (s *bountyService) complete(ctx context.Context, id string) (*domain.Bounty, error) {
	if !domain.IsValidID(id) {
		return nil, domain.ErrInvalidID
	}
	bounty, err := s.bounties.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if bounty.Status == domain.BountyStatusCompleted {
		return nil, domain.ErrBountyClosed
	}
	if err := s.bounties.UpdateStatus(ctx, id, domain.BountyStatusCompleted); err != nil {
		return nil, err
	}

	bounty, err = s.bounties.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cfg.Metrics.BountyEvent("completed")
	s.publish(ctx, events.SubjectBountyCompleted, bountyEvent(bounty, s.cfg.Now()))

	if err := s.expandCreators(ctx, []*domain.Bounty{bounty}); err != nil {
		return nil, err
	}
	return bounty, nil
}

func (s *bountyService) ArchiveURL(ctx context.Context, submissionID string) (string, error) {
	if !domain.IsValidID(submissionID) {
		return "", fmt.Errorf("archive url: %w", domain.ErrInvalidID)
	}
	if s.cfg.Storage == nil {
		return "", fmt.Errorf("archive url: %w", domain.ErrUnavailable)
	}
	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return "", fmt.Errorf("archive url: %w", err)
	}
	if sub.ArchiveKey == "" {
		return "", fmt.Errorf("archive url: archive: %w", domain.ErrNotFound)
	}
	u, err := s.cfg.Storage.PresignGet(ctx, sub.ArchiveKey, archiveURLTTL)
	if err != nil {
		return "", fmt.Errorf("archive url: %w", err)
	}
	return u, nil
}

func (s *bountyService) archive(ctx context.Context, sub *domain.Submission) {
	if s.cfg.Storage == nil {
		return
	}
	logger := s.cfg.Logger.WithFields(logrus.Fields{"bounty_id": sub.BountyID, "submission_id": sub.ID})

	body, err := json.Marshal(archiveRecord(sub))
	if err != nil {
		logger.WithError(err).Warn("encode submission archive")
		return
	}
	key := path.Join(sub.BountyID, sub.ID+".json")
	if _, err := s.cfg.Storage.Upload(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		logger.WithError(err).Warn("upload submission archive")
		return
	}
	if err := s.submissions.SetArchiveKey(ctx, sub.ID, key); err != nil {
		logger.WithError(err).Warn("record submission archive key")
		return
	}
	sub.ArchiveKey = key
}

func (s *bountyService) publish(ctx context.Context, subject string, payload any) {
	if err := s.cfg.Events.Publish(ctx, subject, payload); err != nil {
		s.cfg.Logger.WithError(err).WithField("subject", subject).Warn("publish event")
	}
}

func (s *bountyService) expandCreators(ctx context.Context, bounties []*domain.Bounty) error {
	if len(bounties) == 0 {
		return nil
	}
	ids := make([]string, 0, len(bounties))
	for _, b := range bounties {
		ids = append(ids, b.CreatedBy)
	}
	refs, err := s.users.Refs(ctx, dedupe(ids))
	if err != nil {
		return err
	}
	for _, b := range bounties {
		if ref, ok := refs[b.CreatedBy]; ok {
			b.Creator = &ref
		}
	}
	return nil
}

func (s *bountyService) expandSubmission(ctx context.Context, sub *domain.Submission, bounty *domain.Bounty) error {
	refs, err := s.users.Refs(ctx, sub.UserIDs)
	if err != nil {
		return err
	}
	sub.Users = make([]domain.UserRef, 0, len(sub.UserIDs))
	for _, id := range sub.UserIDs {
		if ref, ok := refs[id]; ok {
			sub.Users = append(sub.Users, ref)
		}
	}
	ref := bounty.Ref()
	sub.Bounty = &ref
	return nil
}

func validateBountyInput(in domain.BountyInput) error {
	var missing []string
	requireText := func(name string, v *string) {
		if v == nil || strings.TrimSpace(*v) == "" {
			missing = append(missing, name)
		}
	}
	requireText("title", in.Title)
	requireText("description", in.Description)
	if in.Reward == nil {
		missing = append(missing, "reward")
	}
	if in.StartDate == nil || in.StartDate.IsZero() {
		missing = append(missing, "startDate")
	}
	if in.EndDate == nil || in.EndDate.IsZero() {
		missing = append(missing, "endDate")
	}
	requireText("about", in.About)
	requireText("eligibility", in.Eligibility)
	requireText("requirements", in.Requirements)
	requireText("procedure", in.Procedure)
	if len(missing) > 0 {
		return domain.Invalid("missing required fields: " + strings.Join(missing, ", "))
	}

	if in.StartDate.After(*in.EndDate) {
		return domain.Invalid("start date cannot be after end date")
	}
	if *in.Reward <= 0 {
		return domain.Invalid("reward must be a positive number")
	}
	return nil
}

func validateBountyPatch(current *domain.Bounty, patch domain.BountyPatch) error {
	for name, v := range map[string]*string{
		"title":        patch.Title,
		"description":  patch.Description,
		"about":        patch.About,
		"eligibility":  patch.Eligibility,
		"requirements": patch.Requirements,
		"procedure":    patch.Procedure,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return domain.Invalid(name + " cannot be empty")
		}
	}

	if patch.StartDate != nil || patch.EndDate != nil {
		start, end := current.StartDate, current.EndDate
		if patch.StartDate != nil {
			start = *patch.StartDate
		}
		if patch.EndDate != nil {
			end = *patch.EndDate
		}
		if start.After(end) {
			return domain.Invalid("start date cannot be after end date")
		}
	}

	if patch.Reward != nil && *patch.Reward <= 0 {
		return domain.Invalid("reward must be a positive number")
	}
	return nil
}

func trimPatch(patch domain.BountyPatch) domain.BountyPatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	patch.Title = trim(patch.Title)
	patch.Description = trim(patch.Description)
	patch.About = trim(patch.About)
	patch.Eligibility = trim(patch.Eligibility)
	patch.Requirements = trim(patch.Requirements)
	patch.Procedure = trim(patch.Procedure)
	return patch
}

func validateSubmission(sub *domain.Submission) error {
	if sub.Solution == "" || sub.Wallet == "" || len(sub.UserIDs) == 0 {
		return domain.Invalid("solution, wallet and a non-empty userIds array are required")
	}
	for _, id := range sub.UserIDs {
		if !domain.IsValidID(id) {
			return domain.Invalid(fmt.Sprintf("invalid user id %q", id))
		}
	}
	return nil
}

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateSubmitter):
		return "duplicate"
	case errors.Is(err, domain.ErrBountyClosed), errors.Is(err, domain.ErrBountyExpired):
		return "closed"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

type archivedSubmission struct {
	ID        string    `json:"id"`
	BountyID  string    `json:"bounty_id"`
	Title     string    `json:"bounty_title,omitempty"`
	UserIDs   []string  `json:"user_ids"`
	Solution  string    `json:"solution"`
	Wallet    string    `json:"wallet"`
	CreatedAt time.Time `json:"created_at"`
}

func archiveRecord(sub *domain.Submission) archivedSubmission {
	rec := archivedSubmission{
		ID:        sub.ID,
		BountyID:  sub.BountyID,
		UserIDs:   sub.UserIDs,
		Solution:  sub.Solution,
		Wallet:    sub.Wallet,
		CreatedAt: sub.CreatedAt,
	}
	if sub.Bounty != nil {
		rec.Title = sub.Bounty.Title
	}
	return rec
}

func bountyEvent(b *domain.Bounty, now time.Time) events.BountyEvent {
	return events.BountyEvent{
		BountyID:   b.ID,
		Title:      b.Title,
		Reward:     b.Reward,
		Status:     string(b.Status),
		CreatedBy:  b.CreatedBy,
		OccurredAt: now.UTC(),
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

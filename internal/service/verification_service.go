package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"bounty-board/internal/domain"
	"bounty-board/internal/mailer"
	"bounty-board/internal/metrics"
	"bounty-board/internal/ratelimit"
	"bounty-board/internal/repository"
)

const (
	// DefaultVerificationTTL is how long an issued verification link stays valid.
	DefaultVerificationTTL = 24 * time.Hour

	verificationSubject = "Verify your Email"
	verificationCost    = 10
)

// VerificationResult is returned by a successful issuance.
type VerificationResult struct {
	Message string
	// Token is only populated when VerificationConfig.ExposeToken is set.
	Token string
}

// VerificationService issues and redeems email verification tokens.
type VerificationService interface {
	Issue(ctx context.Context, userID string) (*VerificationResult, error)
	Redeem(ctx context.Context, userID, token string) error
	SweepExpired(ctx context.Context) (int64, error)
}

// VerificationConfig tunes the verification service.
type VerificationConfig struct {
	ClientURL   string
	TTL         time.Duration
	ExposeToken bool
	Limiter     ratelimit.Limiter
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
	Now         func() time.Time
}

type verificationService struct {
	cfg           VerificationConfig
	users         repository.UserRepository
	verifications repository.VerificationRepository
	mail          mailer.Sender
}

func NewVerificationService(users repository.UserRepository, verifications repository.VerificationRepository, mail mailer.Sender, cfg VerificationConfig) VerificationService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultVerificationTTL
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.Unlimited{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return &verificationService{
		cfg:           cfg,
		users:         users,
		verifications: verifications,
		mail:          mail,
	}
}

func (s *verificationService) Issue(ctx context.Context, userID string) (*VerificationResult, error) {
	res, err := s.issue(ctx, userID)
	if err != nil {
		s.cfg.Metrics.Verification("failed")
		s.cfg.Logger.WithError(err).WithField("user_id", userID).Warn("verification issuance failed")
		return nil, fmt.Errorf("unable to send verification link: %w", err)
	}
	s.cfg.Metrics.Verification("sent")
	return res, nil
}

func (s *verificationService) issue(ctx context.Context, userID string) (*VerificationResult, error) {
	if !domain.IsValidID(userID) {
		return nil, domain.ErrInvalidID
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, domain.ErrAlreadyVerified
	}

	allowed, err := s.cfg.Limiter.Allow(ctx, "verification:"+userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrRateLimited
	}

	token := uuid.NewString() + userID
	hash, err := bcrypt.GenerateFromPassword([]byte(token), verificationCost)
	if err != nil {
		return nil, fmt.Errorf("hash token: %w", err)
	}

	if err := s.verifications.Upsert(ctx, &domain.Verification{
		UserID:             userID,
		HashedUniqueString: string(hash),
		ExpiresAt:          s.cfg.Now().Add(s.cfg.TTL).UTC(),
	}); err != nil {
		return nil, err
	}

	link := s.verificationLink(userID, token)
	if err := s.mail.Send(ctx, user.Email, verificationSubject, verificationBody(link, s.cfg.TTL)); err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}

	s.cfg.Logger.WithFields(logrus.Fields{"user_id": userID}).Info("verification email sent")

	res := &VerificationResult{Message: fmt.Sprintf("Verification email sent to %s", user.Email)}
	if s.cfg.ExposeToken {
		res.Token = token
	}
	return res, nil
}

func (s *verificationService) Redeem(ctx context.Context, userID, token string) error {
	if !domain.IsValidID(userID) {
		return fmt.Errorf("verify email: %w", domain.ErrInvalidID)
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("verify email: %w", domain.ErrInvalidToken)
	}

	v, err := s.verifications.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if v.Expired(s.cfg.Now()) {
		if err := s.verifications.DeleteByUser(ctx, userID); err != nil {
			s.cfg.Logger.WithError(err).WithField("user_id", userID).Warn("delete expired verification")
		}
		return fmt.Errorf("verify email: %w", domain.ErrTokenExpired)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.HashedUniqueString), []byte(token)); err != nil {
		return fmt.Errorf("verify email: %w", domain.ErrInvalidToken)
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if err := s.verifications.DeleteByUser(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("verify email: %w", err)
	}

	s.cfg.Logger.WithField("user_id", userID).Info("email verified")
	return nil
}

func (s *verificationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.verifications.DeleteExpired(ctx, s.cfg.Now())
	if err != nil {
		return 0, fmt.Errorf("sweep verifications: %w", err)
	}
	return n, nil
}

func (s *verificationService) verificationLink(userID, token string) string {
	return fmt.Sprintf("%s/verify-email/%s?token=%s", s.cfg.ClientURL, url.PathEscape(userID), url.QueryEscape(token))
}

func verificationBody(link string, ttl time.Duration) string {
	return fmt.Sprintf(`<p>Verify your email address to complete the signup process</p>`+
		`<p>This link <b>expires in %s</b></p>`+
		`<p>Click <a href="%s">here</a> to proceed</p>`, humanTTL(ttl), link)
}

func humanTTL(ttl time.Duration) string {
	if ttl%time.Hour == 0 {
		hours := int(ttl / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return ttl.String()
}

package domain

import "errors"

// Error kinds shared by every layer. Callers branch on them with errors.Is.
var (
	ErrInvalidID          = errors.New("invalid id")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrValidation         = errors.New("validation failed")
	ErrBountyClosed       = errors.New("bounty is completed")
	ErrBountyExpired      = errors.New("bounty submission period has ended")
	ErrDuplicateSubmitter = errors.New("one or more users have already submitted an answer for this bounty")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInvalidToken       = errors.New("invalid verification token")
	ErrTokenExpired       = errors.New("verification token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("service unavailable")
)

// ValidationError names the rule an input violated.
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string {
	return e.Rule
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for rule.
func Invalid(rule string) error {
	return &ValidationError{Rule: rule}
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bounty-board/internal/domain"
)

type errorKind struct {
	target error
	status int
	code   string
}

// Order matters: the first matching kind wins.
var errorKinds = []errorKind{
	{domain.ErrInvalidID, http.StatusBadRequest, "INVALID_ID"},
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{domain.ErrInvalidToken, http.StatusBadRequest, "INVALID_TOKEN"},
	{domain.ErrTokenExpired, http.StatusBadRequest, "TOKEN_EXPIRED"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrConflict, http.StatusForbidden, "CONFLICT"},
	{domain.ErrAlreadyVerified, http.StatusConflict, "ALREADY_VERIFIED"},
	{domain.ErrBountyClosed, http.StatusConflict, "BOUNTY_CLOSED"},
	{domain.ErrBountyExpired, http.StatusGone, "BOUNTY_EXPIRED"},
	{domain.ErrDuplicateSubmitter, http.StatusConflict, "DUPLICATE_SUBMITTER"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
}

func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "VALIDATION_ERROR"})
}

func respondUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "UNAUTHORIZED"})
}

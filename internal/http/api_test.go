package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bounty-board/internal/domain"
	"bounty-board/internal/metrics"
	"bounty-board/internal/repository/sqlite"
	"bounty-board/internal/service"
)

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, string) error { return nil }

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	verifications := sqlite.NewVerificationRepository(db)
	bounties := sqlite.NewBountyRepository(db)
	submissions := sqlite.NewSubmissionRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, verifications.Init(ctx))
	require.NoError(t, bounties.Init(ctx))
	require.NoError(t, submissions.Init(ctx))

	logger, _ := test.NewNullLogger()
	m := metrics.New()
	tokens, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	handler := NewHandler(
		service.NewUserService(users),
		service.NewVerificationService(users, verifications, nopMailer{}, service.VerificationConfig{
			ClientURL:   "http://localhost:3000",
			ExposeToken: true,
			Logger:      logger,
		}),
		service.NewBountyService(bounties, submissions, users, service.BountyConfig{Logger: logger, Metrics: m}),
		tokens,
		m,
		logger,
	)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

type account struct {
	id    string
	token string
}

func signupAndLogin(t *testing.T, router *gin.Engine, email string) account {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username":  "hunter",
		"firstName": "Bounty",
		"lastName":  "Hunter",
		"email":     email,
		"password":  "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decode(t, rr)
	user := body["user"].(map[string]any)
	id := user["id"].(string)
	assert.Equal(t, fmt.Sprintf("Verification email sent to %s", email), body["message"])

	rr = doJSON(t, router, http.MethodGet, "/api/auth/verify-email/"+id+"?token="+body["token"].(string), "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	login := decode(t, rr)
	assert.Equal(t, true, login["user"].(map[string]any)["isVerified"])
	return account{id: id, token: login["accessToken"].(string)}
}

func bountyBody(reward float64) gin.H {
	start := time.Now().UTC().Add(-time.Hour)
	return gin.H{
		"title":        "Fix the login page",
		"description":  "Login fails on Safari",
		"reward":       reward,
		"startDate":    start.Format(time.RFC3339),
		"endDate":      start.Add(7 * 24 * time.Hour).Format(time.RFC3339),
		"about":        "Frontend",
		"eligibility":  "Anyone",
		"requirements": "A reproducible fix",
		"procedure":    "Open a pull request",
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	router := setupRouter(t)
	signupAndLogin(t, router, "dup@example.com")

	rr := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "other",
		"email":    "DUP@example.com",
		"password": "another-pass",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "CONFLICT", decode(t, rr)["code"])
}

func TestVerificationResendForVerifiedUser(t *testing.T) {
	router := setupRouter(t)
	acct := signupAndLogin(t, router, "done@example.com")

	rr := doJSON(t, router, http.MethodPost, "/api/auth/verification/"+acct.id, "", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ALREADY_VERIFIED", decode(t, rr)["code"])

	rr = doJSON(t, router, http.MethodPost, "/api/auth/verification/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_ID", decode(t, rr)["code"])
}

func TestBountyLifecycle(t *testing.T) {
	router := setupRouter(t)
	owner := signupAndLogin(t, router, "owner@example.com")
	hunter := signupAndLogin(t, router, "hunter@example.com")

	rr := doJSON(t, router, http.MethodPost, "/api/bounties", "", bountyBody(50))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/bounties", owner.token, bountyBody(50))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode(t, rr)
	id := created["id"].(string)
	assert.Equal(t, "OPEN", created["status"])
	assert.Equal(t, owner.id, created["createdBy"].(map[string]any)["id"])
	assert.Equal(t, "Bounty Hunter", created["createdBy"].(map[string]any)["name"])

	rr = doJSON(t, router, http.MethodPatch, "/api/bounties/"+id, owner.token, gin.H{"reward": 80})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.EqualValues(t, 80, decode(t, rr)["reward"])

	rr = doJSON(t, router, http.MethodPatch, "/api/bounties/"+id, owner.token, gin.H{"status": "COMPLETED"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	submission := gin.H{"solution": "https://example.com/pr/1", "wallet": "0xabc", "userIds": []string{hunter.id}}
	rr = doJSON(t, router, http.MethodPost, "/api/bounties/"+id+"/submissions", hunter.token, submission)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "Bounty answer submitted successfully", decode(t, rr)["message"])

	rr = doJSON(t, router, http.MethodPost, "/api/bounties/"+id+"/submissions", hunter.token, submission)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_SUBMITTER", decode(t, rr)["code"])

	rr = doJSON(t, router, http.MethodGet, "/api/bounties/"+id, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode(t, rr)
	assert.Equal(t, "IN_PROGRESS", got["status"])
	assert.Len(t, got["submissions"], 1)

	rr = doJSON(t, router, http.MethodPost, "/api/bounties/"+id+"/complete", owner.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "COMPLETED", decode(t, rr)["status"])

	rr = doJSON(t, router, http.MethodPost, "/api/bounties/"+id+"/submissions", owner.token, gin.H{
		"solution": "late", "wallet": "0xdef", "userIds": []string{owner.id},
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "BOUNTY_CLOSED", decode(t, rr)["code"])

	rr = doJSON(t, router, http.MethodGet, "/api/submissions/"+domain.NewID()+"/archive", owner.token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestListBounties(t *testing.T) {
	router := setupRouter(t)
	owner := signupAndLogin(t, router, "lister@example.com")

	for _, reward := range []float64{10, 100, 500} {
		rr := doJSON(t, router, http.MethodPost, "/api/bounties", owner.token, bountyBody(reward))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := doJSON(t, router, http.MethodGet, "/api/bounties?minReward=100", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []BountyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	for _, b := range list {
		assert.GreaterOrEqual(t, b.Reward, 100.0)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/bounties?minReward=lots", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/bounties/"+domain.NewID(), "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/bounties/123", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateBountyValidation(t *testing.T) {
	router := setupRouter(t)
	owner := signupAndLogin(t, router, "validator@example.com")

	body := bountyBody(50)
	delete(body, "about")
	rr := doJSON(t, router, http.MethodPost, "/api/bounties", owner.token, body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])
	assert.Contains(t, resp["error"], "about")
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	router := setupRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/bounties", "garbage", bountyBody(10))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	other, err := NewTokenIssuer("another-secret", time.Hour)
	require.NoError(t, err)
	forged, _, err := other.Issue(domain.NewID())
	require.NoError(t, err)
	rr = doJSON(t, router, http.MethodPost, "/api/bounties", forged, bountyBody(10))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	tokens, err := NewTokenIssuer("secret", time.Minute)
	require.NoError(t, err)

	id := domain.NewID()
	raw, expires, err := tokens.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)

	sub, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, id, sub)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tokens.Verify(raw)
	assert.Error(t, err)

	_, err = NewTokenIssuer(" ", time.Minute)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("fetch bounty: %w", domain.ErrInvalidID), http.StatusBadRequest, "INVALID_ID"},
		{domain.Invalid("reward must be a positive number"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("bounty: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("email already registered: %w", domain.ErrConflict), http.StatusForbidden, "CONFLICT"},
		{domain.ErrBountyExpired, http.StatusGone, "BOUNTY_EXPIRED"},
		{domain.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{domain.ErrTokenExpired, http.StatusBadRequest, "TOKEN_EXPIRED"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "bounty_http_request_duration_seconds")
}

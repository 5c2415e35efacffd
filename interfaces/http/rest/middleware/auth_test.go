package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calibrate-backend/pkg/auth"
	"calibrate-backend/pkg/common"
	appErrors "calibrate-backend/pkg/errors"
)

type stubVerifier struct {
	identity *auth.Identity
	err      error
}

func (v *stubVerifier) VerifyToken(token string) (*auth.Identity, error) {
	return v.identity, v.err
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func (l *stubLimiter) Reset(ctx context.Context, key string) error {
	return nil
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/calibration/stability", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthenticate_ValidToken(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.Identity{UserID: "user-123"}}
	limiter := &stubLimiter{allowed: true}

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = common.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	Authenticate(verifier, limiter, zap.NewNop())(next).ServeHTTP(rec, authRequest("good-token"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", gotUserID)
	assert.Equal(t, []string{"user-123"}, limiter.keys)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.Identity{UserID: "user-123"}}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	Authenticate(verifier, nil, zap.NewNop())(next).ServeHTTP(rec, authRequest(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: appErrors.NewUnauthorizedError("invalid token")}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	Authenticate(verifier, nil, zap.NewNop())(next).ServeHTTP(rec, authRequest("bad-token"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_RateLimited(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.Identity{UserID: "user-123"}}
	limiter := &stubLimiter{allowed: false}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	Authenticate(verifier, limiter, zap.NewNop())(next).ServeHTTP(rec, authRequest("good-token"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_LimiterFailureAllowsRequest(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.Identity{UserID: "user-123"}}
	limiter := &stubLimiter{allowed: false, err: errors.New("dynamodb unavailable")}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	Authenticate(verifier, limiter, zap.NewNop())(next).ServeHTTP(rec, authRequest("good-token"))

	assert.Equal(t, http.StatusOK, rec.Code)
}

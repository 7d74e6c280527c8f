package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)
	h := limiter.LimitMiddleware(okHandler)

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/calculate-gas", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:5000"))
}

func TestLimitMiddleware_EvictsIdleIPs(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(1, 2)
	limiter.now = func() time.Time { return clock }
	h := limiter.LimitMiddleware(okHandler)

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/calculate-gas", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for n := 0; n < 50; n++ {
		require.Equal(t, http.StatusOK, do(fmt.Sprintf("10.0.1.%d:5000", n)))
	}
	assert.Equal(t, 50, limiter.Len())

	clock = clock.Add(DefaultIdleTTL + time.Minute)
	assert.Equal(t, http.StatusOK, do("10.0.2.1:5000"))
	assert.Equal(t, 1, limiter.Len())
}

func TestLimitMiddleware_KeepsThrottledIPs(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(0.001, 2)
	limiter.now = func() time.Time { return clock }
	h := limiter.LimitMiddleware(okHandler)

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/calculate-gas", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:5001"))

	// the bucket has not refilled after the idle period, so the IP stays throttled
	clock = clock.Add(DefaultIdleTTL + time.Minute)
	assert.Equal(t, http.StatusOK, do("10.0.0.2:5000"))
	assert.Equal(t, 2, limiter.Len())
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:5002"))
}

func TestTokenAuth(t *testing.T) {
	key := []byte("test-key")
	a := &TokenAuth{Key: key}

	var gotSubject string
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = Subject(r.Context())
	}))

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/premium/gas/batch", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	token, err := IssueToken(key, "design-office", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do("Bearer "+token))
	assert.Equal(t, "design-office", gotSubject)

	assert.Equal(t, http.StatusUnauthorized, do(""))
	assert.Equal(t, http.StatusUnauthorized, do("Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer not-a-jwt"))

	other, err := IssueToken([]byte("other-key"), "design-office", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+other))

	expired, err := IssueToken(key, "design-office", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+expired))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: Issuer, Subject: "x"}).SignedString(key)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+noExp))
}

func TestTokenAuth_OpenWithoutKey(t *testing.T) {
	h := (&TokenAuth{}).Middleware(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/premium/gas/batch", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssueToken_Errors(t *testing.T) {
	_, err := IssueToken(nil, "x", time.Hour)
	assert.Error(t, err)
	_, err = IssueToken([]byte("k"), "", time.Hour)
	assert.Error(t, err)
}

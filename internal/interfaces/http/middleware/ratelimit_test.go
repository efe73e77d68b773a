package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(rate float64, burst int) (*TokenBucketLimiter, *manualClock) {
	clock := &manualClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	l := NewTokenBucketLimiter(rate, burst, 0)
	l.now = clock.Now
	return l, clock
}

func TestTokenBucketLimiter_BurstThenReject(t *testing.T) {
	l, _ := newTestLimiter(1, 3)
	for i := 0; i < 3; i++ {
		ok, info := l.Allow("a")
		require.True(t, ok, "request %d", i)
		assert.Equal(t, 2-i, info.Remaining)
		assert.Equal(t, 3, info.Limit)
	}
	ok, info := l.Allow("a")
	assert.False(t, ok)
	assert.Zero(t, info.Remaining)
}

func TestTokenBucketLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(2, 1)
	ok, _ := l.Allow("a")
	require.True(t, ok)
	ok, _ = l.Allow("a")
	require.False(t, ok)

	clock.Advance(500 * time.Millisecond)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 1)
	ok, _ := l.Allow("a")
	require.True(t, ok)
	ok, _ = l.Allow("b")
	assert.True(t, ok)
	assert.Equal(t, 2, l.BucketCount())
}

func TestTokenBucketLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(1, 1)
	l.interval = time.Minute
	l.Allow("a")
	clock.Advance(2 * time.Minute)
	l.Allow("b")

	l.cleanup()
	assert.Equal(t, 1, l.BucketCount())
}

func TestTokenBucketLimiter_StopIsIdempotent(t *testing.T) {
	l := NewTokenBucketLimiter(1, 1, time.Hour)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestRateLimit_Middleware(t *testing.T) {
	l, _ := newTestLimiter(1, 1)
	handler := RateLimit(l, DefaultRateLimitConfig())(okHandler())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/risk/score", nil)
	r.RemoteAddr = "10.0.0.1"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "COMMON_007", body["code"])
}

func TestRateLimit_SkipPaths(t *testing.T) {
	l, _ := newTestLimiter(1, 1)
	handler := RateLimit(l, DefaultRateLimitConfig())(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Zero(t, l.BucketCount())
}

//Personal.AI order the ending

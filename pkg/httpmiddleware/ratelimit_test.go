package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	now := time.Unix(1000, 0)

	// The burst budget is consumed one token per request.
	for i := 2; i >= 0; i-- {
		remaining, allowed := rl.allow("client", now)
		assert.True(t, allowed)
		assert.Equal(t, i, remaining)
	}

	_, allowed := rl.allow("client", now)
	assert.False(t, allowed)

	// Other clients have their own bucket.
	_, allowed = rl.allow("other", now)
	assert.True(t, allowed)
}

func TestRateLimiterRefill(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	now := time.Unix(1000, 0)

	rl.allow("client", now)
	rl.allow("client", now)
	_, allowed := rl.allow("client", now)
	require.False(t, allowed)

	// Half a window restores half the capacity: exactly one token.
	now = now.Add(30 * time.Second)
	_, allowed = rl.allow("client", now)
	assert.True(t, allowed)
	_, allowed = rl.allow("client", now)
	assert.False(t, allowed)

	// A full idle window refills to capacity, never beyond it.
	now = now.Add(5 * time.Minute)
	remaining, allowed := rl.allow("client", now)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Unix(1000, 0)

	rl.allow("stale", now)
	rl.allow("fresh", now.Add(50*time.Second))
	rl.cleanup(now.Add(time.Minute))

	assert.NotContains(t, rl.buckets, "stale")
	assert.Contains(t, rl.buckets, "fresh")
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimit(RateLimitConfig{
		Max:     2,
		Window:  time.Hour,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-Client") },
	})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(client string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("a")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("a")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())

	// A different key is unaffected by the exhausted bucket.
	rec = do("b")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDefaultKeyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1", defaultKeyFunc(req))

	req.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", defaultKeyFunc(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", defaultKeyFunc(req))
}

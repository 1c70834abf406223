package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstPerClient(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 0.001, Burst: 2})
	defer rl.Stop()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per client")

	m := rl.GetMetrics()
	assert.Equal(t, int64(1), m.TotalHits)
	assert.Equal(t, int64(2), m.ClientCount)
}

func TestCleanupDropsIdleClients(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 1, Burst: 1, IdleTimeout: time.Minute})
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.cleanupStaleEntries(time.Now())
	assert.Equal(t, 1, rl.ActiveClients())
	rl.cleanupStaleEntries(time.Now().Add(2 * time.Minute))
	assert.Zero(t, rl.ActiveClients())
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 0.5, Burst: 1})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

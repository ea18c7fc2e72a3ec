package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	rl := NewMemoryLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := rl.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i+1)
	}

	ok, _ := rl.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "keys are independent")

	now = now.Add(Window)
	ok, _ = rl.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "new window resets the counter")
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	rl := NewMemoryLimiter(Config{RequestsPerMinute: 5})
	defer rl.Stop()

	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	_, _ = rl.Allow(context.Background(), "a")
	assert.Equal(t, 1, rl.ActiveClients())

	now = now.Add(11 * Window)
	rl.cleanupStaleEntries()
	assert.Equal(t, 0, rl.ActiveClients())
}

type stubLimiter struct {
	allow bool
	err   error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.allow, s.err }
func (stubLimiter) Stop()                                         {}

func TestMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	keyFn := func(r *http.Request) string { return "k" }

	tests := []struct {
		name       string
		limiter    stubLimiter
		wantStatus int
		want       Metrics
	}{
		{"allowed", stubLimiter{allow: true}, http.StatusNoContent, Metrics{Allowed: 1}},
		{"rejected", stubLimiter{allow: false}, http.StatusTooManyRequests, Metrics{Rejected: 1}},
		{"limiter error fails open", stubLimiter{err: errors.New("redis down")}, http.StatusNoContent, Metrics{Allowed: 1, Errors: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMiddleware(tt.limiter, keyFn, nil)
			rec := httptest.NewRecorder()
			m.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/budgets", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.want, m.GetMetrics())
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			}
		})
	}
}

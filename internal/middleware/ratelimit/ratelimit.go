package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	applog "cmoney/internal/log"
)

// Window is the fixed counting window shared by every limiter.
const Window = time.Minute

// Limiter decides whether one more request under key fits in the current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Stop()
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = d.RequestsPerMinute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

// MemoryLimiter counts requests per key in process. It is used when no
// Redis is configured and by single-instance deployments.
type MemoryLimiter struct {
	mu           sync.Mutex
	clients      map[string]*window
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	now          func() time.Time

	requestsPerMinute int
}

type window struct {
	start    time.Time
	requests int
}

// NewMemoryLimiter creates a limiter and starts its stale-entry sweeper.
func NewMemoryLimiter(config Config) *MemoryLimiter {
	config = config.normalized()
	rl := &MemoryLimiter{
		clients:           make(map[string]*window),
		stopCleanup:       make(chan struct{}),
		now:               time.Now,
		requestsPerMinute: config.RequestsPerMinute,
	}
	go rl.cleanupLoop(config.CleanupInterval)
	return rl
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= Window {
		rl.clients[key] = &window{start: now, requests: 1}
		return true, nil
	}
	w.requests++
	return w.requests <= rl.requestsPerMinute, nil
}

func (rl *MemoryLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes windows that closed long ago.
func (rl *MemoryLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-10 * Window)
	for key, w := range rl.clients {
		if w.start.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (rl *MemoryLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *MemoryLimiter) Stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	Allowed  int64
	Rejected int64
	Errors   int64
}

// Middleware enforces a Limiter on every request, keyed by keyFn. Limiter
// errors fail open so an unavailable Redis never takes the API down.
type Middleware struct {
	limiter Limiter
	keyFn   func(*http.Request) string
	onLimit func(http.ResponseWriter, *http.Request)

	allowed  atomic.Int64
	rejected atomic.Int64
	errors   atomic.Int64
}

func NewMiddleware(limiter Limiter, keyFn func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) *Middleware {
	return &Middleware{limiter: limiter, keyFn: keyFn, onLimit: onLimit}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.keyFn(r)
		ok, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			m.errors.Add(1)
			slog.WarnContext(r.Context(), "Rate limiter unavailable, allowing request",
				applog.FieldComponent, applog.ComponentRateLimit, "key", key, applog.FieldError, err)
			ok = true
		}
		if !ok {
			m.rejected.Add(1)
			w.Header().Set("Retry-After", strconv.Itoa(int(Window/time.Second)))
			if m.onLimit != nil {
				m.onLimit(w, r)
			} else {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			}
			return
		}
		m.allowed.Add(1)
		next.ServeHTTP(w, r)
	})
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		Allowed:  m.allowed.Load(),
		Rejected: m.rejected.Load(),
		Errors:   m.errors.Load(),
	}
}

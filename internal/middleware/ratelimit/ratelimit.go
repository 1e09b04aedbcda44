// Package ratelimit limits requests per client over a fixed window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Config holds rate limiter configuration.
type Config struct {
	// Requests is the budget per client and window.
	Requests int
	Window   time.Duration
	// IdleAfter drops clients that sent nothing for this long.
	IdleAfter       time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Requests:        120,
		Window:          time.Minute,
		IdleAfter:       10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Requests <= 0 {
		c.Requests = def.Requests
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = def.IdleAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	return c
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left in the current window, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) int {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

type window struct {
	start time.Time
	last  time.Time
	count int
}

// Limiter tracks a request window per client key.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter and its cleanup goroutine; Stop ends it.
func NewLimiter(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow counts a request from key against its window.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++
	w.last = now

	remaining := l.cfg.Requests - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   w.count <= l.cfg.Requests,
		Limit:     l.cfg.Requests,
		Remaining: remaining,
		ResetAt:   w.start.Add(l.cfg.Window),
	}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep forgets idle clients and returns how many were dropped.
func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.IdleAfter)
	dropped := 0
	for key, w := range l.windows {
		if w.last.Before(cutoff) {
			delete(l.windows, key)
			dropped++
		}
	}
	return dropped
}

// ActiveClients returns the number of tracked client keys.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware sets X-RateLimit-* headers on every response and rejects
// requests over budget with Retry-After. keyFn picks the client key; onLimit
// writes the rejection body, or a plain 429 when nil.
func (l *Limiter) Middleware(keyFn func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(keyFn(r))
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(d.RetryAfter(l.now())))
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

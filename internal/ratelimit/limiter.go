package ratelimit

import (
	"net/http"
	"time"
)

// Result describes the outcome of a single rate limit check. RetryAfterSeconds
// is zero when the request is allowed, otherwise the whole seconds until the
// window resets, rounded up with a floor of one.
type Result struct {
	Allowed           bool
	Limit             int
	Remaining         int
	RetryAfterSeconds int
	ResetAt           time.Time
}

// Limiter enforces fixed-window limits over a shared store. Counts reset
// fully at each window boundary, so a client can burst up to twice the limit
// across a boundary; that is the accepted trade-off of the fixed-window
// strategy.
type Limiter struct {
	store Store
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithStore overrides the backing store.
func WithStore(store Store) Option {
	return func(l *Limiter) {
		l.store = store
	}
}

// NewLimiter creates a fixed-window limiter over an in-memory store.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		store: NewMemoryStore(nil),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records one request for key within namespace and reports whether it
// stays within max requests per window. The namespace keeps independent
// routes from sharing counters for the same client key.
func (l *Limiter) Check(namespace, key string, max int, window time.Duration) Result {
	now := l.now()
	count, resetAt := l.store.Increment(namespace+":"+key, now, window)

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}

	allowed := count <= max
	retryAfter := 0
	if !allowed {
		retryAfter = retryAfterSeconds(now, resetAt)
	}

	return Result{
		Allowed:           allowed,
		Limit:             max,
		Remaining:         remaining,
		RetryAfterSeconds: retryAfter,
		ResetAt:           resetAt,
	}
}

// CheckRequest checks the request's client IP against the limit. With scope
// set, the request path joins the namespace so each route gets its own
// budget.
func (l *Limiter) CheckRequest(r *http.Request, namespace string, max int, window time.Duration, scope bool) Result {
	ns := namespace
	if scope {
		ns = namespace + ":" + r.URL.Path
	}
	return l.Check(ns, ClientIP(r), max, window)
}

// retryAfterSeconds returns the whole seconds until resetAt, rounded up,
// with a floor of 1 so blocked clients never receive a zero wait.
func retryAfterSeconds(now, resetAt time.Time) int {
	ms := resetAt.Sub(now).Milliseconds()
	secs := int((ms + 999) / 1000)
	if secs < 1 {
		secs = 1
	}
	return secs
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewLimiter(WithClock(clock.Now)), clock
}

func TestCheck_AllowsUpToMax(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 3; i++ {
		res := l.Check("api", "1.2.3.4", 3, time.Minute)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Zero(t, res.RetryAfterSeconds)
	}

	res := l.Check("api", "1.2.3.4", 3, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Positive(t, res.RetryAfterSeconds)
}

func TestCheck_RemainingNeverNegative(t *testing.T) {
	l, _ := newTestLimiter()

	l.Check("api", "k", 1, time.Minute)
	for i := 0; i < 5; i++ {
		res := l.Check("api", "k", 1, time.Minute)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
	}
}

func TestCheck_WindowReset(t *testing.T) {
	l, clock := newTestLimiter()

	l.Check("api", "k", 2, time.Minute)
	l.Check("api", "k", 2, time.Minute)
	assert.False(t, l.Check("api", "k", 2, time.Minute).Allowed)

	clock.Advance(time.Minute)

	res := l.Check("api", "k", 2, time.Minute)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestCheck_BoundaryBurst(t *testing.T) {
	// Windows are anchored at their first request. A client that spends
	// the rest of its budget just before resetAt and continues right
	// after it gets up to twice the limit across the boundary.
	l, clock := newTestLimiter()

	assert.True(t, l.Check("api", "k", 2, time.Minute).Allowed)
	clock.Advance(59 * time.Second)
	assert.True(t, l.Check("api", "k", 2, time.Minute).Allowed)
	assert.False(t, l.Check("api", "k", 2, time.Minute).Allowed)

	// One second later the window opened at t0 has elapsed.
	clock.Advance(time.Second)
	assert.True(t, l.Check("api", "k", 2, time.Minute).Allowed)
	assert.True(t, l.Check("api", "k", 2, time.Minute).Allowed)
	assert.False(t, l.Check("api", "k", 2, time.Minute).Allowed)
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()

	assert.True(t, l.Check("api", "1.1.1.1", 1, time.Minute).Allowed)
	assert.False(t, l.Check("api", "1.1.1.1", 1, time.Minute).Allowed)
	assert.True(t, l.Check("api", "2.2.2.2", 1, time.Minute).Allowed)
}

func TestCheck_NamespacesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()

	assert.True(t, l.Check("webhook", "1.1.1.1", 1, time.Minute).Allowed)
	assert.False(t, l.Check("webhook", "1.1.1.1", 1, time.Minute).Allowed)
	assert.True(t, l.Check("shared", "1.1.1.1", 1, time.Minute).Allowed)
}

func TestCheck_RetryAfterRoundsUp(t *testing.T) {
	l, clock := newTestLimiter()

	l.Check("api", "k", 1, time.Minute)
	clock.Advance(30*time.Second + 500*time.Millisecond)

	res := l.Check("api", "k", 1, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 30, res.RetryAfterSeconds)
}

func TestCheck_RetryAfterFloorIsOne(t *testing.T) {
	l, clock := newTestLimiter()

	l.Check("api", "k", 1, time.Minute)
	clock.Advance(time.Minute - time.Millisecond)

	res := l.Check("api", "k", 1, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 1, res.RetryAfterSeconds)
}

func TestCheck_ResetAtIsWindowEnd(t *testing.T) {
	l, clock := newTestLimiter()

	start := clock.Now()
	res := l.Check("api", "k", 5, time.Minute)
	assert.Equal(t, start.Add(time.Minute), res.ResetAt)

	// The reset time is pinned to the first request of the window.
	clock.Advance(20 * time.Second)
	res = l.Check("api", "k", 5, time.Minute)
	assert.Equal(t, start.Add(time.Minute), res.ResetAt)
}

func TestCheckRequest_ScopeSplitsBudgetPerPath(t *testing.T) {
	l, _ := newTestLimiter()

	ra := httptest.NewRequest(http.MethodGet, "/a", nil)
	ra.RemoteAddr = "1.1.1.1:10"
	rb := httptest.NewRequest(http.MethodGet, "/b", nil)
	rb.RemoteAddr = "1.1.1.1:10"

	assert.True(t, l.CheckRequest(ra, "api", 1, time.Minute, true).Allowed)
	assert.False(t, l.CheckRequest(ra, "api", 1, time.Minute, true).Allowed)
	// a different path under the same namespace has its own budget
	assert.True(t, l.CheckRequest(rb, "api", 1, time.Minute, true).Allowed)
}

func TestCheckRequest_UnscopedSharesBudget(t *testing.T) {
	l, _ := newTestLimiter()

	ra := httptest.NewRequest(http.MethodGet, "/a", nil)
	ra.RemoteAddr = "1.1.1.1:10"
	rb := httptest.NewRequest(http.MethodGet, "/b", nil)
	rb.RemoteAddr = "1.1.1.1:10"

	assert.True(t, l.CheckRequest(ra, "api", 1, time.Minute, false).Allowed)
	assert.False(t, l.CheckRequest(rb, "api", 1, time.Minute, false).Allowed)
}

package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/modaversa/storefront/pkg/httputil"
)

// Headers writes the standard rate limit headers for a check result.
// Retry-After is only sent on rejection.
func Headers(w http.ResponseWriter, res Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
	}
}

// Middleware rate limits requests by client IP under the given namespace and
// responds 429 with limit headers when the window is exhausted. With scope
// set, each route path inside the namespace gets its own budget.
func Middleware(limiter *Limiter, namespace string, max int, window time.Duration, scope bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiter.CheckRequest(r, namespace, max, window, scope)
			Headers(w, res)

			if !res.Allowed {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("namespace", namespace),
					slog.String("client_ip", ClientIP(r)),
					slog.String("path", r.URL.Path),
					slog.Int("retry_after_seconds", res.RetryAfterSeconds),
				)
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "RATE_LIMITED",
						Message: "rate limit exceeded, retry later",
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

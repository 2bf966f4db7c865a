package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the client address for rate limiting. Proxy headers are
// checked in order of trust before falling back to the socket address:
// CF-Connecting-IP, the first X-Forwarded-For entry, then X-Real-IP. When
// nothing usable is present it returns "unknown" so all such requests share
// one bucket.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, entry := range strings.Split(xff, ",") {
			if ip := strings.TrimSpace(entry); ip != "" {
				return ip
			}
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/modaversa/storefront/internal/domain"
	"github.com/modaversa/storefront/pkg/httputil"
	"github.com/modaversa/storefront/pkg/logger"
)

// GuestTokenHeader carries the opaque token anonymous clients persist
// locally to key their wishlist and cart.
const GuestTokenHeader = "X-Guest-Token"

type identityKey struct{}

// IdentityFromContext returns the identity resolved for the request, or a
// zero identity when none was established.
func IdentityFromContext(ctx context.Context) domain.Identity {
	if ident, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return ident
	}
	return domain.Identity{}
}

// ContextWithIdentity returns a context carrying the given identity. Used by
// handler tests.
func ContextWithIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// Identity resolves the caller's identity from the request and stores it in
// the context. A Bearer token, when present, must be valid and yields the
// user id; the guest token header is carried alongside so a freshly logged
// in client can still reach its guest-era data. Requests with neither are
// passed through with a zero identity; endpoints decide whether that is
// acceptable.
func Identity(jwtManager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := domain.Identity{
				GuestToken: strings.TrimSpace(r.Header.Get(GuestTokenHeader)),
			}

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
						Error: &httputil.ErrorResponse{
							Code:    "UNAUTHORIZED",
							Message: "invalid authorization header format",
						},
					})
					return
				}

				claims, err := jwtManager.Validate(tokenString)
				if err != nil {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
						Error: &httputil.ErrorResponse{
							Code:    "UNAUTHORIZED",
							Message: "invalid or expired token",
						},
					})
					return
				}
				ident.UserID = claims.UserID
			}

			ctx := ContextWithIdentity(r.Context(), ident)
			if ident.UserID != "" {
				ctx = logger.WithUserID(ctx, ident.UserID)
			}
			if ident.GuestToken != "" {
				ctx = logger.WithGuestToken(ctx, ident.GuestToken)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

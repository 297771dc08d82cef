// Package middleware provides HTTP middleware for the KyberChat API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kyberchat/kyberchat/pkg/auth"
)

// claimsContextKey is unexported so only this package can attach claims.
type claimsContextKey struct{}

// withClaims returns a child context carrying verified JWT claims.
func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetClaimsFromContext returns the JWT claims attached by JWTAuth, or nil
// when the request never went through it.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*auth.Claims)
	return claims
}

// bearerToken pulls the token out of an "Authorization: Bearer <token>"
// header. The scheme comparison is case-insensitive per RFC 9110.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}

// JWTAuth validates the Bearer access token on every request and makes the
// verified claims available through the request context. Requests without a
// valid token get a 401.
//
// Refresh tokens are rejected here: they are only accepted by the refresh
// endpoint, and only from the cookie.
func JWTAuth(tokens *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		}
		return http.HandlerFunc(fn)
	}
}

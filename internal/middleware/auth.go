// Package middleware contains the HTTP middleware chain: tracing,
// auth, rate limiting, CORS, and request metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/hustleboard/hustleboard/internal/app/services/identity"
	"github.com/hustleboard/hustleboard/internal/httputil"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// TokenParser verifies bearer tokens. The identity service implements it.
type TokenParser interface {
	ParseToken(token string) (*identity.Claims, error)
}

// Auth validates the bearer token and stores the identity in the
// request context. Paths with a listed prefix pass through untouched.
func Auth(parser TokenParser, skipPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Unauthorized(w, "missing authorization header")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				httputil.Unauthorized(w, "authorization header must be a bearer token")
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				httputil.WriteServiceError(w, err)
				return
			}

			ctx := logging.WithUser(r.Context(), claims.Subject, claims.Wallet)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

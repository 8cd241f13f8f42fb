package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CoordinatorClaims identifies a care coordinator allowed to push
// outbound messages through the admin surface.
type CoordinatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const roleCoordinator = "coordinator"

type contextKey string

const coordinatorClaimsKey contextKey = "coordinatorClaims"

// CoordinatorJWT guards admin routes with an HMAC-signed JWT whose role
// claim must name a coordinator. A structurally valid token without the
// role is rejected the same way as a bad signature; the reason is never
// echoed to the caller.
func CoordinatorJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			claims := &CoordinatorClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims,
				func(*jwt.Token) (any, error) { return []byte(secret), nil },
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithExpirationRequired(),
			)
			if err != nil || !token.Valid || claims.Role != roleCoordinator {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), coordinatorClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CoordinatorFromContext returns the verified coordinator claims, for
// handlers that want the subject in their logs.
func CoordinatorFromContext(ctx context.Context) (*CoordinatorClaims, bool) {
	claims, ok := ctx.Value(coordinatorClaimsKey).(*CoordinatorClaims)
	return claims, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"smartpark/internal/token"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenValidator verifies a token string into claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// Auth validates the login JWT and puts the verified (email, plate)
// identity on the request context. The token is taken from the
// Authorization header, or from the token query parameter for websocket
// clients that cannot set headers.
func Auth(validator TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				tokenStr = r.URL.Query().Get("token")
			}
			if tokenStr == "" {
				http.Error(w, "missing authorization", http.StatusUnauthorized)
				return
			}

			claims, err := validator.Validate(tokenStr)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityFromContext retrieves the verified claims from request context.
func IdentityFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(identityKey).(*token.Claims)
	return claims, ok
}

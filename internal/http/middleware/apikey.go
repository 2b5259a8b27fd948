package middleware

import "net/http"

const apiKeyHeader = "X-Api-Key"

// KeyVerifier checks a shared secret.
type KeyVerifier interface {
	Verify(key string) error
}

// APIKey guards the internal detector endpoints with a shared key.
func APIKey(verifier KeyVerifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				http.Error(w, "missing api key", http.StatusUnauthorized)
				return
			}
			if err := verifier.Verify(key); err != nil {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}

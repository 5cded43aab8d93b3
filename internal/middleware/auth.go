package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// InternalSecretHeader authenticates internal producers on the enqueue
// endpoint.
const InternalSecretHeader = "X-Internal-Secret"

// RequireBearer enforces the consumer-facing shared secret: the bridge sends
// `Authorization: Bearer <secret>`. Anyone holding the secret has full queue
// read/write; there is no per-client identity.
func RequireBearer(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || !secretEqual(token, secret) {
				unauthorized(w, "unauthorized: invalid secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireInternalSecret enforces the producer-facing shared secret carried in
// the X-Internal-Secret header.
func RequireInternalSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secretEqual(r.Header.Get(InternalSecretHeader), secret) {
				unauthorized(w, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error": "` + message + `"}`))
}

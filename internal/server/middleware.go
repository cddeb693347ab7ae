package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// securityHeaders sets the headers every response carries.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// tokenMiddleware checks for a bearer token or X-API-Key header and
// validates it against the provided token. If token is empty, it allows
// all requests.
func tokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			reqToken := r.Header.Get("X-API-Key")
			if auth := r.Header.Get("Authorization"); reqToken == "" && strings.HasPrefix(auth, "Bearer ") {
				reqToken = strings.TrimPrefix(auth, "Bearer ")
			}
			if reqToken == "" {
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(reqToken), []byte(token)) != 1 {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the configured origin. A configured value ending in "*" after
// a scheme and host prefix (e.g. "https://fib-dashboard-*") matches any
// origin with that prefix.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqOrigin := r.Header.Get("Origin")
			allowed := origin

			if reqOrigin != "" && isAllowed(reqOrigin, origin) {
				allowed = reqOrigin
			}

			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAllowed(reqOrigin, configured string) bool {
	if configured == "*" {
		return true
	}
	if reqOrigin == configured {
		return true
	}
	if prefix, ok := strings.CutSuffix(configured, "*"); ok && prefix != "" {
		return strings.HasPrefix(reqOrigin, prefix)
	}
	return false
}

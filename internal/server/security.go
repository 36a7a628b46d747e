// security.go - Response-hardening headers.
package server

import "net/http"

// securityHeadersMiddleware adds defensive headers to all responses. The
// service serves opaque archives and plain text only, so the interesting
// ones are MIME sniffing and referrer leakage of download URLs (the URL
// contains the code, which is the access secret).
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

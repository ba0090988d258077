package middleware

import (
	"net/http"
	"strings"

	"lead-capture/internal/platform/httpx"
)

// MsgBodyTooLarge is returned when a request body exceeds the configured limit.
const MsgBodyTooLarge = "request body too large"

// MaxBody caps request bodies at limit bytes. A declared Content-Length over the limit is rejected
// with 413 before any handler reads the body; other bodies are wrapped in http.MaxBytesReader so
// later form parsing (including the CSRF token lookup) stops at the limit. Paths under
// exemptPrefixes keep their own limits.
func MaxBody(limit int64, exemptPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if r.ContentLength > limit {
				httpx.WriteError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

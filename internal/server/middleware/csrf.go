package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"lead-capture/internal/platform/httpx"
)

// CSRFFieldName is the hidden form field carrying the token.
const CSRFFieldName = "csrf_token"

// MsgCSRF is returned when a form post lacks a valid token.
const MsgCSRF = "invalid or missing csrf token"

// CSRF returns gorilla/csrf protection for the HTML forms. Requests under any of exemptPrefixes
// (the JSON API) skip the check. Requests that did not arrive over TLS (directly or via
// X-Forwarded-Proto) are marked plaintext so the referer check matches the scheme in use.
func CSRF(key []byte, secure bool, exemptPrefixes ...string) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteError(w, http.StatusForbidden, MsgCSRF)
		})),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					r = csrf.UnsafeSkipCheck(r)
					break
				}
			}
			if r.TLS == nil && !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

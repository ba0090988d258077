package middleware

import (
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// AdminCookie holds the admin JWT issued at login.
const AdminCookie = "admin_token"

// MsgUnauthenticated is the error returned to callers without a valid admin token.
const MsgUnauthenticated = "missing or invalid authorization"

// TokenValidator checks an admin token and returns its subject.
type TokenValidator interface {
	ValidateAdmin(token string) (subject string, err error)
}

// RequireAdmin returns middleware that lets a request through only when it carries a valid admin token,
// read from the AdminCookie cookie or an "Authorization: Bearer" header. The subject is stored in the
// request context (see AdminSubject). Rejected requests are handed to deny.
// A nil validator means admin auth is disabled and every request passes.
func RequireAdmin(v TokenValidator, deny http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				deny.ServeHTTP(w, r)
				return
			}
			subject, err := v.ValidateAdmin(token)
			if err != nil {
				deny.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdminSubject(r.Context(), subject)))
		})
	}
}

// ExtractToken returns the Bearer token from the Authorization header, else the AdminCookie value, else "".
func ExtractToken(r *http.Request) string {
	if t := extractBearer(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie(AdminCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// extractBearer returns the token of a "Bearer <token>" header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

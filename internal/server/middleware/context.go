package middleware

import "context"

type contextKey struct{ name string }

var adminSubjectKey = contextKey{"admin_subject"}

// WithAdminSubject returns a context carrying the authenticated admin subject.
func WithAdminSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminSubjectKey, subject)
}

// AdminSubject returns the admin subject from ctx and true if set; otherwise "", false.
func AdminSubject(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminSubjectKey).(string)
	return v, ok
}

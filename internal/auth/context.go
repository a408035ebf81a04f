package auth

import "context"

type contextKey struct{}

var subjectKey contextKey

// WithSubject binds the validated token subject to the request context. Only
// the gate calls this.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFrom returns the caller identity bound by the gate. Handlers behind
// the gate trust it without re-validating.
func SubjectFrom(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}

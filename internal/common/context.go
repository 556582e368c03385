package common

import (
	"context"
)

type contextKey string

const (
	// UserEmailKey carries the requester identity resolved by the
	// identity middleware. The email string is the bearer credential for
	// every authenticated call.
	UserEmailKey contextKey = "user_email"
)

// WithUserEmail returns a context carrying the resolved requester email.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserEmailKey, email)
}

// GetUserEmailFromContext extracts the requester email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok && email != ""
}

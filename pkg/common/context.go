package common

import "context"

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID records the authenticated student's ID on the context so that
// logging and persistence layers can attribute writes without depending on
// the auth package.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the student ID recorded by WithUserID, if any.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

package auth

import (
	"context"

	apperrors "studybuddy-backend/pkg/errors"
)

// UserContext carries the authenticated identity through the request
type UserContext struct {
	UserID string
	Email  string
}

type contextKey string

const userContextKey contextKey = "auth_user"

// WithUser attaches the authenticated user to the context
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user or an unauthenticated
// error. Core operations that require "me" must short-circuit on this error
// instead of calling into the services.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil || user.UserID == "" {
		return nil, apperrors.NewUnauthenticatedError("")
	}
	return user, nil
}

package auth

import (
	"context"
)

type authCtxKey struct{}

// WithContext attaches an AuthContext so tool handlers can check the
// caller's scope.
func WithContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey{}, auth)
}

// FromContext returns the AuthContext, or nil for unauthenticated
// contexts.
func FromContext(ctx context.Context) *AuthContext {
	auth, _ := ctx.Value(authCtxKey{}).(*AuthContext)
	return auth
}

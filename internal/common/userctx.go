package common

import (
	"context"
)

// UserContext holds per-request user identity injected by the auth middleware
// (bearer token) or the X-Chitty-User-ID header in development. When absent
// (nil), the server operates in single-tenant mode as the "default" user.
type UserContext struct {
	UserID string
	Email  string
	Role   string
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the UserID from context, or "default" when no user context is present.
// Used by services and storage operations that need a user scope.
func ResolveUserID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil && uc.UserID != "" {
		return uc.UserID
	}
	return "default"
}

// ResolveRole returns the role from context, or empty when no user context is present.
func ResolveRole(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.Role
	}
	return ""
}

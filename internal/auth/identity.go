package auth

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

type identityKey struct{}

// WithIdentity stores the authenticated user on the context. The value is
// request-scoped; it is never shared across requests.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityKey{}, user.PublicProfile())
}

// IdentityFromContext retrieves the authenticated user attached by the auth
// gate, if any.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(identityKey{}).(models.User)
	return user, ok
}

package shared

import "context"

type contextKey string

const identityKey contextKey = "identity"

// Identity describes the authenticated caller attached to a request context.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

// ContextWithIdentity returns a context carrying the caller identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the caller identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Package middleware provides HTTP middleware for the API server: request
// authentication and the identity context it populates.
package middleware

import "context"

type contextKey struct{ name string }

var ownerIDKey = contextKey{"owner_id"}

// WithOwnerID returns a context carrying the authenticated caregiver ID.
// Handlers read it via GetOwnerID.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// GetOwnerID returns the caregiver ID from context and true if set; otherwise "", false.
func GetOwnerID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ownerIDKey).(string)
	return v, ok && v != ""
}

// Package correlation generates and carries the per-request correlation id
// that links log lines across service boundaries.
package correlation

import (
	"context"
	"encoding/base64"

	"github.com/google/uuid"
)

type contextKey struct{}

// NewID returns a URL-safe, unpadded base64 encoding of a random 128-bit uuid.
// The result is always 22 characters from [A-Za-z0-9_-].
func NewID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the correlation id stored in ctx, or "" if there is none.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

package shared

import (
	"context"

	"github.com/phrazzld/service-scaffold/internal/domain"
)

// ContextKey is the type for request-scoped values set by the middleware.
type ContextKey string

// Context keys for various values
const (
	// UserContextKey holds the authenticated *domain.User.
	UserContextKey ContextKey = "user"

	// MessagesContextKey holds the flash messages read for this request.
	MessagesContextKey ContextKey = "messages"
)

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(UserContextKey).(*domain.User)
	return user
}

// WithMessages returns a copy of ctx carrying flash messages.
func WithMessages(ctx context.Context, msgs []Message) context.Context {
	return context.WithValue(ctx, MessagesContextKey, msgs)
}

// MessagesFromContext returns the flash messages delivered with this request.
func MessagesFromContext(ctx context.Context) []Message {
	msgs, _ := ctx.Value(MessagesContextKey).([]Message)
	return msgs
}

// Message is a one-shot notice shown on the next rendered page.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

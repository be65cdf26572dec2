package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/service-scaffold/internal/service/auth"
)

// MockSessionService implements auth.SessionService for testing
type MockSessionService struct {
	IssueFn    func(ctx context.Context, userID uuid.UUID) (string, time.Time, error)
	ValidateFn func(ctx context.Context, token string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       string
	ExpiresAt   time.Time
	Err         error
	ValidateErr error
	Claims      *auth.Claims

	// IssuedFor records every user a session was issued for.
	IssuedFor []uuid.UUID
}

var _ auth.SessionService = (*MockSessionService)(nil)

// Issue implements auth.SessionService
func (m *MockSessionService) Issue(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	m.IssuedFor = append(m.IssuedFor, userID)
	if m.IssueFn != nil {
		return m.IssueFn(ctx, userID)
	}
	return m.Token, m.ExpiresAt, m.Err
}

// Validate implements auth.SessionService
func (m *MockSessionService) Validate(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, token)
	}
	return m.Claims, m.ValidateErr
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/service-scaffold/internal/domain"
)

// TestifyMockUserService is a testify mock of service.UserService
type TestifyMockUserService struct {
	mock.Mock
}

// GetUser mocks service.UserService.GetUser
func (m *TestifyMockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// ListUsers mocks service.UserService.ListUsers
func (m *TestifyMockUserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*domain.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

// CreateSuperuser mocks service.UserService.CreateSuperuser
func (m *TestifyMockUserService) CreateSuperuser(
	ctx context.Context,
	username, email, password string,
) (*domain.User, error) {
	args := m.Called(ctx, username, email, password)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// Authenticate mocks service.UserService.Authenticate
func (m *TestifyMockUserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	args := m.Called(ctx, username, password)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// PasswordHelp mocks service.UserService.PasswordHelp
func (m *TestifyMockUserService) PasswordHelp() []string {
	args := m.Called()
	if help, ok := args.Get(0).([]string); ok {
		return help
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/service-scaffold/internal/domain"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/store"
)

// UserService provides account operations for the admin console and CLI.
type UserService interface {
	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ListUsers returns every account ordered by username.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// CreateSuperuser validates password, hashes it and stores a new superuser.
	CreateSuperuser(ctx context.Context, username, email, password string) (*domain.User, error)

	// Authenticate checks credentials and records the login time.
	// Returns auth.ErrInvalidCredentials or auth.ErrInactiveUser on failure.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// PasswordHelp describes the configured password rules.
	PasswordHelp() []string
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore  store.UserStore
	db         *sql.DB
	hasher     auth.PasswordHasher
	verifier   auth.PasswordVerifier
	validators []auth.PasswordValidator
	logger     *slog.Logger
	now        func() time.Time
}

// NewUserService creates a new UserService. A single BcryptVerifier usually
// serves as both hasher and verifier.
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	validators []auth.PasswordValidator,
	logger *slog.Logger,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore:  userStore,
		db:         db,
		hasher:     hasher,
		verifier:   verifier,
		validators: validators,
		logger:     logger.With("component", "user_service"),
		now:        time.Now,
	}
}

// Ensure UserServiceImpl implements UserService interface
var _ UserService = (*UserServiceImpl)(nil)

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// ListUsers returns every account ordered by username.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userStore.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateSuperuser runs the password validators against the prospective user,
// then stores the account inside a transaction.
func (s *UserServiceImpl) CreateSuperuser(ctx context.Context, username, email, password string) (*domain.User, error) {
	candidate := &domain.User{Username: username, Email: email}
	if err := auth.ValidatePassword(password, candidate, s.validators); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewSuperuser(username, email, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return nil, fmt.Errorf("%w: %s", ErrSuperuserExists, username)
		}
		s.logger.ErrorContext(ctx, "failed to save superuser", "error", err)
		return nil, fmt.Errorf("failed to create superuser: %w", err)
	}

	s.logger.InfoContext(ctx, "superuser created", "user_id", user.ID)
	return user, nil
}

// Authenticate checks credentials and records the login time.
func (s *UserServiceImpl) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.DebugContext(ctx, "login for unknown username")
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.DebugContext(ctx, "login with wrong password", "user_id", user.ID)
		return nil, auth.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, auth.ErrInactiveUser
	}

	now := s.now().UTC()
	if err := s.userStore.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record login", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

// PasswordHelp describes the configured password rules.
func (s *UserServiceImpl) PasswordHelp() []string {
	return auth.HelpTexts(s.validators)
}

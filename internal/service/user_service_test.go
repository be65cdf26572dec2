package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/domain"
	"github.com/phrazzld/service-scaffold/internal/mocks"
	"github.com/phrazzld/service-scaffold/internal/platform/database"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/testdb"
)

func newTestUserService(t *testing.T) *UserServiceImpl {
	t.Helper()
	db, _ := testdb.Open(t)

	validators, err := auth.NewPasswordValidators(config.DefaultPasswordValidators())
	require.NoError(t, err)

	bc := auth.NewBcryptVerifierWithCost(bcrypt.MinCost)
	return NewUserService(database.NewSQLUserStore(db, nil), db, bc, bc, validators, nil)
}

func TestCreateSuperuserAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t)

	user, err := svc.CreateSuperuser(ctx, "admin", "admin@example.com", "tangerine-velvet-42")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
	assert.NotEqual(t, "tangerine-velvet-42", user.HashedPassword)

	got, err := svc.Authenticate(ctx, "admin", "tangerine-velvet-42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	require.NotNil(t, got.LastLogin)

	stored, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateSuperuserRejectsWeakPassword(t *testing.T) {
	svc := newTestUserService(t)
	_, err := svc.CreateSuperuser(context.Background(), "admin", "", "admin123")
	assert.ErrorIs(t, err, auth.ErrPasswordRejected)
}

func TestCreateSuperuserDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t)

	_, err := svc.CreateSuperuser(ctx, "admin", "", "tangerine-velvet-42")
	require.NoError(t, err)
	_, err = svc.CreateSuperuser(ctx, "admin", "", "tangerine-velvet-42")
	assert.ErrorIs(t, err, ErrSuperuserExists)
}

func TestCreateSuperuserInvalidUsername(t *testing.T) {
	svc := newTestUserService(t)
	_, err := svc.CreateSuperuser(context.Background(), "bad name", "", "tangerine-velvet-42")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t)

	_, err := svc.CreateSuperuser(ctx, "admin", "", "tangerine-velvet-42")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "tangerine-velvet-42")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	assert.NotEmpty(t, svc.PasswordHelp())
}

func TestCreateSuperuserHashFailure(t *testing.T) {
	ctx := context.Background()
	base := newTestUserService(t)

	hasher := &mocks.MockPasswordVerifier{HashErr: errors.New("entropy exhausted")}
	svc := NewUserService(base.userStore, base.db, hasher, hasher, base.validators, nil)

	_, err := svc.CreateSuperuser(ctx, "admin", "", "tangerine-velvet-42")
	assert.EqualError(t, err, "entropy exhausted")

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	ctx := context.Background()
	base := newTestUserService(t)

	user, err := domain.NewUser("intern", "", "hashed:irrelevant")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, base.userStore.Create(ctx, user))

	verifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}
	svc := NewUserService(base.userStore, base.db, verifier, verifier, base.validators, nil)

	_, err = svc.Authenticate(ctx, "intern", "anything")
	assert.ErrorIs(t, err, auth.ErrInactiveUser)
	assert.Equal(t, 1, verifier.CompareCallCount)
}

func TestStoreWritesInsideTransactionRollBack(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t)

	testdb.WithTx(t, svc.db, func(t *testing.T, tx *sql.Tx) {
		user, err := domain.NewUser("draft", "", "hashed:irrelevant")
		require.NoError(t, err)
		txStore := database.NewSQLUserStore(svc.db, nil).WithTx(tx)
		require.NoError(t, txStore.Create(ctx, user))

		got, err := txStore.GetByUsername(ctx, "draft")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

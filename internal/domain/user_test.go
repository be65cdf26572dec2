package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("alice", "alice@example.com", "hash")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)
	assert.False(t, user.DateJoined.IsZero())
	assert.Nil(t, user.LastLogin)
	assert.False(t, user.CanAccessAdmin())
}

func TestNewSuperuser(t *testing.T) {
	user, err := NewSuperuser("root", "", "hash")
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.CanAccessAdmin())

	user.IsActive = false
	assert.False(t, user.CanAccessAdmin())
}

func TestUserValidate(t *testing.T) {
	valid := User{
		ID:             uuid.New(),
		Username:       "bob.smith+ops@corp",
		Email:          "bob@example.com",
		HashedPassword: "hash",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*User)
		want   error
	}{
		{"nil id", func(u *User) { u.ID = uuid.Nil }, ErrEmptyUserID},
		{"empty username", func(u *User) { u.Username = "" }, ErrEmptyUsername},
		{"long username", func(u *User) { u.Username = strings.Repeat("a", MaxUsernameLength+1) }, ErrUsernameTooLong},
		{"bad username", func(u *User) { u.Username = "has space" }, ErrInvalidUsername},
		{"bad email", func(u *User) { u.Email = "not-an-email" }, ErrInvalidEmail},
		{"no hash", func(u *User) { u.HashedPassword = "" }, ErrEmptyHashedPassword},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := valid
			tc.mutate(&u)
			assert.ErrorIs(t, u.Validate(), tc.want)
		})
	}
}

func TestCanAccessAdminNil(t *testing.T) {
	var u *User
	assert.False(t, u.CanAccessAdmin())
}

package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxUsernameLength matches the usual account username column width.
const MaxUsernameLength = 150

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrInvalidUsername     = errors.New("username may contain only letters, digits and @/./+/-/_")
	ErrUsernameTooLong     = fmt.Errorf("username must be at most %d characters long", MaxUsernameLength)
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	validate        = validator.New()
)

// User is an account that can sign in to the admin console.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"` // Never expose password hash in JSON
	IsActive       bool       `json:"is_active"`
	IsStaff        bool       `json:"is_staff"`
	IsSuperuser    bool       `json:"is_superuser"`
	DateJoined     time.Time  `json:"date_joined"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
}

// NewUser creates an active, non-staff user.
// The caller is responsible for hashing the password before storing the user.
func NewUser(username, email, hashedPassword string) (*User, error) {
	user := &User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		DateJoined:     time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// NewSuperuser creates an active user with staff and superuser rights.
func NewSuperuser(username, email, hashedPassword string) (*User, error) {
	user, err := NewUser(username, email, hashedPassword)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	user.IsSuperuser = true
	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Username == "" {
		return ErrEmptyUsername
	}
	if len(u.Username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !usernamePattern.MatchString(u.Username) {
		return ErrInvalidUsername
	}
	if u.Email != "" {
		if err := validate.Var(u.Email, "email"); err != nil {
			return ErrInvalidEmail
		}
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	return nil
}

// CanAccessAdmin reports whether u may use the admin console.
func (u *User) CanAccessAdmin() bool {
	return u != nil && u.IsActive && u.IsStaff
}

// Attributes returns the user fields that passwords are compared against.
func (u *User) Attributes() map[string]string {
	return map[string]string{
		"username": u.Username,
		"email":    u.Email,
	}
}

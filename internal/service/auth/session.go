package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/service-scaffold/internal/platform/logger"
)

// DefaultSessionLifetime is how long an admin session cookie stays valid.
const DefaultSessionLifetime = 14 * 24 * time.Hour

const sessionTokenType = "session"

// SessionService issues and validates signed session tokens.
type SessionService interface {
	// Issue creates a signed session token for userID and returns it with its expiry.
	Issue(ctx context.Context, userID uuid.UUID) (string, time.Time, error)

	// Validate checks the signature and lifetime of token and returns its claims.
	Validate(ctx context.Context, token string) (*Claims, error)
}

// Claims are the values carried by a validated session token.
type Claims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// hmacSessionService signs sessions with HMAC-SHA256 keyed by SECRET_KEY.
type hmacSessionService struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time // Injectable for testing
	clockSkew  time.Duration
}

type sessionClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacSessionService implements SessionService interface
var _ SessionService = (*hmacSessionService)(nil)

// NewSessionService creates a SessionService signing with secretKey.
// A zero lifetime selects DefaultSessionLifetime.
func NewSessionService(secretKey string, lifetime time.Duration) (SessionService, error) {
	if secretKey == "" {
		return nil, errors.New("session signing key must not be empty")
	}
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &hmacSessionService{
		signingKey: []byte(secretKey),
		lifetime:   lifetime,
		timeFunc:   time.Now,
		clockSkew:  time.Minute,
	}, nil
}

func (s *hmacSessionService) Issue(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	now := s.timeFunc()
	expires := now.Add(s.lifetime)

	claims := sessionClaims{
		UserID:    userID,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign session token",
			"error", err,
			"user_id", userID)
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

func (s *hmacSessionService) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := s.timeFunc()
	token, err := jwt.ParseWithClaims(
		tokenString,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("session validation failed: token expired")
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("session validation failed: token not yet valid")
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("session validation failed", "error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.TokenType != sessionTokenType ||
		claims.UserID == uuid.Nil || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		log.Debug("session validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    claims.UserID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}

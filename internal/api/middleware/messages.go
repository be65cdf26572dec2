package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
)

// MessagesCookieName is the cookie carrying pending flash messages.
const MessagesCookieName = "messages"

const messagesLifetime = time.Hour

// MessageStore keeps one-shot flash messages in a signed cookie.
type MessageStore struct {
	key []byte
	now func() time.Time
}

type messageClaims struct {
	Messages []shared.Message `json:"msgs"`
	jwt.RegisteredClaims
}

// NewMessageStore creates a MessageStore signing cookies with secretKey.
func NewMessageStore(secretKey string) (*MessageStore, error) {
	if secretKey == "" {
		return nil, errors.New("message signing key must not be empty")
	}
	return &MessageStore{key: []byte("messages:" + secretKey), now: time.Now}, nil
}

// Middleware moves pending messages from the cookie into the request context
// and clears the cookie, so each message is delivered once.
func (s *MessageStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(MessagesCookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		msgs, err := s.decode(c.Value)
		if err != nil {
			slog.DebugContext(r.Context(), "discarding message cookie", "error", err)
		}
		s.clear(w, r)

		if len(msgs) > 0 {
			r = r.WithContext(shared.WithMessages(r.Context(), msgs))
		}
		next.ServeHTTP(w, r)
	})
}

// Add queues msgs for the next request from this client.
func (s *MessageStore) Add(w http.ResponseWriter, r *http.Request, msgs ...shared.Message) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, messageClaims{
		Messages: msgs,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(messagesLifetime)),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to sign messages", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     MessagesCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *MessageStore) decode(value string) ([]shared.Message, error) {
	claims := &messageClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims.Messages, nil
}

func (s *MessageStore) clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     MessagesCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
}

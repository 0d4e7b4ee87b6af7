package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const SessionIDKey contextKey = "session_id"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

var ErrInvalidSession = errors.New("invalid session token")

type SessionAuth struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
	now    func() time.Time
}

func NewSessionAuth(secret string, ttl time.Duration, secure bool) *SessionAuth {
	return &SessionAuth{Secret: []byte(secret), TTL: ttl, Secure: secure, now: time.Now}
}

// IssueToken signs a token for sessionID that expires after TTL.
func (s *SessionAuth) IssueToken(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(s.TTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// ParseToken verifies tokenStr and returns the session id it carries.
func (s *SessionAuth) ParseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidSession
	}

	sid, _ := claims["sid"].(string)
	if _, err := uuid.Parse(sid); err != nil {
		return "", ErrInvalidSession
	}
	return sid, nil
}

// SessionFromRequest returns the session id of a valid session cookie.
func (s *SessionAuth) SessionFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	sid, err := s.ParseToken(cookie.Value)
	if err != nil {
		return "", false
	}
	return sid, true
}

// Middleware attaches the caller's session id to the context. Requests
// without a valid cookie get a fresh session and a new cookie.
func (s *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.SessionFromRequest(r)
		if !ok {
			sid = uuid.NewString()
			token, err := s.IssueToken(sid)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Falha ao criar sessão")
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(s.TTL.Seconds()),
				HttpOnly: true,
				Secure:   s.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID extracts the session id from request context
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// Package auth validates the session cookie minted by the main ComentsIA
// application. Both sides share SESSION_SECRET; the cookie payload is an
// HMAC-signed JWT carrying the user id and a per-session CSRF token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("expired session token")
)

// SessionClaims is the session cookie payload.
type SessionClaims struct {
	UserID string `json:"uid"`
	CSRF   string `json:"csrf"`
	jwt.RegisteredClaims
}

// IssueSessionToken mints a session token for userID and returns the token
// together with its CSRF value. The main application uses the same layout;
// here it is exercised by tests and the session tooling.
func IssueSessionToken(secret []byte, userID string, ttl time.Duration) (string, string, error) {
	if userID == "" {
		return "", "", fmt.Errorf("user id required")
	}

	csrf := uuid.NewString()
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		CSRF:   csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, csrf, nil
}

// ParseSessionToken validates tokenString and returns its claims.
func ParseSessionToken(secret []byte, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

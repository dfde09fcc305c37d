package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Serapsys/jobSite/internal/apperr"
)

// Claims carried by the bearer token issued by the auth service. The chat
// backend only verifies; issuance lives with the identity provider.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate checks the token signature and expiry and returns the user id.
// Every failure collapses to ErrAuthFailed so callers never leak parser
// detail to clients.
func (v *Validator) Validate(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", apperr.ErrAuthFailed
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return "", apperr.ErrAuthFailed
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", apperr.ErrAuthFailed
	}
	return claims.UserID, nil
}

// Issue signs a short-lived HS256 token for userID. Used by tests and local
// tooling; production tokens come from the auth service.
func Issue(secret, userID string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// FromBearerHeader extracts the token from an Authorization header.
func FromBearerHeader(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", apperr.ErrAuthFailed
	}
	return parts[1], nil
}

// Package auth verifies the bearer token presented at connection time
// and issues tokens for the HTTP login flow.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/noteroom/internal/domain"
)

var (
	ErrTokenMissing = errors.New("authentication token missing")
	ErrTokenInvalid = errors.New("invalid authentication token")
)

// Claims carries the identity a connection is bound to after the
// handshake. Immutable once verified.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func GenerateToken(user *domain.User, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: string(user.ID),
		Name:   user.Name,
		Email:  user.Email,
	})
	return token.SignedString(secret)
}

// VerifyToken checks signature and expiry and decodes the identity
// claims. An empty token is reported separately so the handshake can
// distinguish "missing" from "invalid".
func VerifyToken(tokenString string, secret []byte) (domain.User, error) {
	if tokenString == "" {
		return domain.User{}, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return domain.User{}, ErrTokenInvalid
	}

	return domain.User{
		ID:    domain.UserID(claims.UserID),
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}

// Package auth issues and validates the bearer tokens that protect the
// sweep-trigger endpoint. Tokens are short-lived HS256 JWTs signed with the
// sweep secret shared between the server and the external scheduler.
package auth

import (
	"time"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// SweepSubject is the subject claim carried by sweep tokens.
const SweepSubject = "sweep"

type Claims struct {
	jwt.RegisteredClaims
}

// GenerateSweepToken signs a token valid for validityDuration.
func GenerateSweepToken(secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   SweepSubject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
	})

	return token.SignedString(secretKey)
}

// ValidateSweepToken parses tokenString and checks the signature, expiry and
// subject. Returns common.ErrInvalidToken on any failure.
func ValidateSweepToken(tokenString string, secretKey []byte) error {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject != SweepSubject {
		return common.ErrInvalidToken
	}

	return nil
}

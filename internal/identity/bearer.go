package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// BearerVerifier accepts HS256 tokens already issued by a trusted party.
// Issuing tokens is out of scope; the gateway only reads them.
type BearerVerifier struct {
	key []byte
}

func NewBearerVerifier(secret string) *BearerVerifier {
	if secret == "" {
		return nil
	}
	return &BearerVerifier{key: []byte(secret)}
}

type bearerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Email verifies the token and returns its email claim, or the subject
// when no email claim is present.
func (v *BearerVerifier) Email(token string) (string, error) {
	if v == nil {
		return "", errors.New("bearer tokens are not enabled")
	}

	var claims bearerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("failed to verify bearer token: %w", err)
	}

	email := strings.TrimSpace(claims.Email)
	if email == "" {
		email = strings.TrimSpace(claims.Subject)
	}
	if email == "" || email == Unknown {
		return "", ErrNoUserDetail
	}
	return email, nil
}

func bearerToken(authorization string) string {
	if len(authorization) > 7 && strings.EqualFold(authorization[:7], "bearer ") {
		return strings.TrimSpace(authorization[7:])
	}
	return ""
}

// Package auth is the authentication collaborator boundary: it turns
// the token presented at handshake time into a verified UserID. The
// coordinator trusts the result without re-verifying.
package auth

import (
	"fmt"
	"time"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by a connection token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier validates handshake tokens with an HMAC secret.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// GenerateToken creates a signed token for a user. Used by the client
// tool and test harnesses; a production deployment issues tokens from
// its own identity service.
func (v *Verifier) GenerateToken(user domain.UserID, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: string(user),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// VerifyToken parses and validates a token and returns the UserID it
// carries.
func (v *Verifier) VerifyToken(tokenString string) (domain.UserID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", apperrors.ErrInvalidToken
	}
	return domain.UserID(claims.UserID), nil
}

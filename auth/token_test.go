package auth

import (
	"testing"
	"time"

	apperrors "chat-hub/errors"

	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("secret", "chat-hub")

	// Given a signed token for alice
	token, err := verifier.GenerateToken("alice", time.Minute)
	req.NoError(err)
	req.NotEmpty(token)

	// When the handshake verifies it
	user, err := verifier.VerifyToken(token)

	// Then the verified identity is alice
	req.NoError(err)
	req.Equal("alice", string(user))
}

func TestVerifier_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	issuing := NewVerifier("secret", "chat-hub")
	verifying := NewVerifier("other-secret", "chat-hub")

	token, err := issuing.GenerateToken("alice", time.Minute)
	req.NoError(err)

	// When a token signed with another secret is presented
	_, err = verifying.VerifyToken(token)

	// Then the handshake is refused
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func TestVerifier_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("secret", "chat-hub")

	// Given a token past its lifetime
	token, err := verifier.GenerateToken("alice", -time.Minute)
	req.NoError(err)

	// When it is presented
	_, err = verifier.VerifyToken(token)

	// Then the handshake is refused
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("secret", "chat-hub")

	_, err := verifier.VerifyToken("not-a-token")

	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	p, err := NewTestTokenProvider()
	require.NoError(t, err)

	token, exp, err := p.IssueSession("sess-1", "user-1", "12345678")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(p.TTL()), exp, 5*time.Second)

	sessionID, userID, err := p.ValidateSession(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sessionID)
	assert.Equal(t, "user-1", userID)
}

func TestTokenProvider_ValidateInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	require.NoError(t, err)

	_, _, err = p.ValidateSession("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenProvider_WrongAudience(t *testing.T) {
	p, err := NewTestTokenProvider()
	require.NoError(t, err)
	other := NewTokenProvider(p.privateKey, p.publicKey, "test-issuer", "other-audience", time.Minute)

	token, _, err := other.IssueSession("s", "u", "n")
	require.NoError(t, err)
	_, _, err = p.ValidateSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenProvider_WrongIssuer(t *testing.T) {
	p, err := NewTestTokenProvider()
	require.NoError(t, err)
	other := NewTokenProvider(p.privateKey, p.publicKey, "someone-else", "test-audience", time.Minute)

	token, _, err := other.IssueSession("s", "u", "n")
	require.NoError(t, err)
	_, _, err = p.ValidateSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenProvider_Expired(t *testing.T) {
	p, err := NewTestTokenProvider()
	require.NoError(t, err)
	short := NewTokenProvider(p.privateKey, p.publicKey, "test-issuer", "test-audience", -time.Minute)

	token, _, err := short.IssueSession("s", "u", "n")
	require.NoError(t, err)
	_, _, err = p.ValidateSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenProvider_ECDSA(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	p := NewTokenProvider(key, &key.PublicKey, "iss", "aud", time.Minute)

	token, _, err := p.IssueSession("s", "u", "n")
	require.NoError(t, err)
	_, userID, err := p.ValidateSession(token)
	require.NoError(t, err)
	assert.Equal(t, "u", userID)
	assert.Equal(t, "ES256", KeyAlg(&key.PublicKey))
}

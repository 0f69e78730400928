package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NoError(t, h.Compare(hash, "secret123"))
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
}

func TestHasher_CompareMalformedHash(t *testing.T) {
	err := NewHasher(bcrypt.MinCost).Compare("not-a-hash", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestHasher_Cost(t *testing.T) {
	assert.Equal(t, 12, NewHasher(12).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(1).Cost)
	assert.Equal(t, bcrypt.MaxCost, NewHasher(99).Cost)
}

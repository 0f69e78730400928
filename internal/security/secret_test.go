package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := GenerateSecret()
		require.NoError(t, err)
		assert.Len(t, s, SecretLength)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(secretAlphabet, r), "unexpected rune %q", r)
		}
		assert.False(t, seen[s], "duplicate secret")
		seen[s] = true
	}
}

func TestSecretEqual(t *testing.T) {
	assert.True(t, SecretEqual("abc123", "abc123"))
	assert.False(t, SecretEqual("abc124", "abc123"))
	assert.False(t, SecretEqual("abc12", "abc123"))
	assert.False(t, SecretEqual("", ""), "empty stored secret never matches")
}

package security

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
)

// SecretLength is the length of generated confirmation secrets.
const SecretLength = 15

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecret returns a random alphanumeric secret of SecretLength characters.
func GenerateSecret() (string, error) {
	max := big.NewInt(int64(len(secretAlphabet)))
	b := make([]byte, SecretLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = secretAlphabet[n.Int64()]
	}
	return string(b), nil
}

// SecretEqual compares a presented secret with the stored one in constant time.
// An empty stored secret never matches.
func SecretEqual(presented, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

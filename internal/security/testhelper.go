package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"sync"
	"time"
)

var (
	testKeyOnce sync.Once
	testKey     *ecdsa.PrivateKey
	testKeyErr  error
)

// NewTestTokenProvider returns an ES256 TokenProvider over a process-wide generated key,
// issuer "test-issuer", audience "test-audience" and a 15 minute TTL. For tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	testKeyOnce.Do(func() {
		testKey, testKeyErr = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	})
	if testKeyErr != nil {
		return nil, testKeyErr
	}
	return NewTokenProvider(testKey, &testKey.PublicKey, "test-issuer", "test-audience", 15*time.Minute), nil
}

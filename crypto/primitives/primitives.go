// Package primitives wraps the low-level cryptographic operations every
// higher layer of the core is built from: the two AEADs, HKDF/HMAC-SHA256,
// Argon2id, the OS CSPRNG, constant-time comparison and secret wiping.
//
// Every function is pure and re-entrant; failures are reported as the shared
// sentinel errors from the crypto package, never as panics.
package primitives

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	builditcrypto "github.com/buildit-network/buildit/crypto"
)

// RandomBytes returns n bytes from the OS-backed CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("csprng: %w", builditcrypto.ErrRandomGenerationFailed)
	}
	return buf, nil
}

// ConstantTimeEq reports whether a and b are equal without leaking the
// position of the first mismatch through timing. Inputs of different lengths
// compare unequal.
func ConstantTimeEq(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

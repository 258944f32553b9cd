// Package duress provides coercion resistance: a second password that
// appears to unlock the app normally while switching to a decoy identity,
// destroying the real key material and optionally alerting trusted contacts
// through traffic indistinguishable from ordinary messages.
//
// Threat model: the adversary has the unlocked device, may coerce the user
// into entering a password, may watch them type it, and may monitor the
// network. Nothing observable distinguishes the duress path from a normal
// login.
package duress

import (
	"bytes"

	"github.com/buildit-network/buildit/crypto/primitives"
	"github.com/buildit-network/buildit/internal/logger"
)

// HKDF domain separation for duress hashes. The Argon2id parameters are the
// master-key parameters from the primitives package.
var (
	duressKeySalt = []byte("BuildItNetwork-Duress-v1")
	duressKeyInfo = []byte("duress-password-key")
)

// CheckResult reports the outcome of a password check. No error kind ever
// distinguishes the duress path; the caller sees only these two booleans.
type CheckResult struct {
	// IsDuress is true when the entered password matched the duress hash.
	IsDuress bool
	// PasswordValid is true when the password matched either hash.
	PasswordValid bool
}

// HashPassword derives the 32-byte comparison hash for a password:
// Argon2id(password, salt) expanded through HKDF for domain separation from
// the master key. Both the normal and the duress password are hashed this
// way with identical parameters, so the two stored hashes are
// indistinguishable at rest.
func HashPassword(password, salt []byte) ([]byte, error) {
	derived, err := primitives.Argon2id(password, salt)
	if err != nil {
		return nil, err
	}
	hash, err := primitives.HKDFSHA256(duressKeySalt, derived, duressKeyInfo, 32)
	primitives.SecureWipe(derived)
	if err != nil {
		return nil, err
	}
	return hash, nil
}

// CheckPassword hashes the entered password and compares it against the
// stored duress and normal hashes. Both comparisons are constant time and
// both always run; there is no short-circuit for a timing observer to see.
func CheckPassword(enteredPassword, salt, storedDuressHash, storedNormalHash []byte) (*CheckResult, error) {
	enteredHash, err := HashPassword(enteredPassword, salt)
	if err != nil {
		return nil, err
	}
	defer primitives.SecureWipe(enteredHash)

	isDuress := primitives.ConstantTimeEq(enteredHash, storedDuressHash)
	isNormal := primitives.ConstantTimeEq(enteredHash, storedNormalHash)

	return &CheckResult{
		IsDuress:      isDuress,
		PasswordValid: isDuress || isNormal,
	}, nil
}

// ValidatePassword reports whether a candidate duress password is acceptable
// against the normal password. Rejected: identical, reversed, shorter than 4
// bytes, or the normal password with one character appended or prepended.
func ValidatePassword(duressPassword, normalPassword []byte) bool {
	if bytes.Equal(duressPassword, normalPassword) {
		return false
	}

	reversed := make([]byte, len(normalPassword))
	for i, b := range normalPassword {
		reversed[len(normalPassword)-1-i] = b
	}
	if bytes.Equal(duressPassword, reversed) {
		return false
	}

	if len(duressPassword) < 4 {
		return false
	}

	if len(duressPassword) == len(normalPassword)+1 {
		if bytes.Equal(duressPassword[:len(normalPassword)], normalPassword) {
			return false
		}
		if bytes.Equal(duressPassword[1:], normalPassword) {
			return false
		}
	}

	return true
}

// SecureDestroyKey shreds a private key buffer: pattern passes, a random
// pass, then zeros. Best effort — copies in swap or hibernation images are
// beyond reach.
func SecureDestroyKey(key []byte) error {
	if len(key) == 0 {
		return nil
	}
	primitives.SecureWipe(key)
	logger.Default().Info("key material destroyed", logger.Int("bytes", len(key)))
	return nil
}

package crypto

import "errors"

// Every failure surfaced by the core maps to exactly one of these errors.
// Callers on the FFI boundary branch on the error identity; wrapping with
// fmt.Errorf("...: %w", err) preserves it through errors.Is.
var (
	ErrInvalidKey             = errors.New("invalid private key")
	ErrInvalidPublicKey       = errors.New("invalid public key format")
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrEncryptionFailed       = errors.New("encryption failed")
	ErrDecryptionFailed       = errors.New("decryption failed")
	ErrInvalidPlaintextLength = errors.New("invalid plaintext length (must be 1-65535 bytes)")
	ErrInvalidCiphertext      = errors.New("invalid ciphertext format")
	ErrInvalidPadding         = errors.New("invalid padding")
	ErrInvalidMac             = errors.New("invalid MAC")
	ErrInvalidHex             = errors.New("invalid hex string")
	ErrInvalidJSON            = errors.New("invalid JSON")
	ErrSigningFailed          = errors.New("signing failed")
	ErrKeyDerivationFailed    = errors.New("key derivation failed")
	ErrRandomGenerationFailed = errors.New("random number generation failed")
	ErrInvalidDuressPassword  = errors.New("invalid duress password")
	ErrDuressPasswordTooClose = errors.New("duress password too similar to normal password")
	ErrKeyDestructionFailed   = errors.New("key destruction failed")
	ErrDuressAlertFailed      = errors.New("duress alert failed")
	ErrInvalidVersion         = errors.New("invalid version string (expected format: MAJOR.MINOR.PATCH)")
)

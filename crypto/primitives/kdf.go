package primitives

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	builditcrypto "github.com/buildit-network/buildit/crypto"
)

// Argon2id parameters shared by master-key and duress-hash derivation.
const (
	Argon2MemoryKiB   = 65536
	Argon2Time        = 3
	Argon2Parallelism = 4
	Argon2OutputLen   = 32
)

// HKDFSHA256 derives length bytes from ikm with the given salt and info.
// An empty salt is treated as a string of zero bytes per RFC 5869. The
// maximum output is 255*32 = 8160 bytes.
func HKDFSHA256(salt, ikm, info []byte, length int) ([]byte, error) {
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), out); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", builditcrypto.ErrKeyDerivationFailed)
	}
	return out, nil
}

// HMACSHA256 computes HMAC-SHA256(key, msg).
func HMACSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Argon2id derives a 32-byte key from password and salt with the fixed
// parameters above (64 MiB, t=3, p=4). The function's own copy of the
// password is wiped before returning. Salts shorter than 16 bytes are
// rejected.
func Argon2id(password, salt []byte) ([]byte, error) {
	if len(salt) < 16 {
		return nil, builditcrypto.ErrKeyDerivationFailed
	}
	owned := make([]byte, len(password))
	copy(owned, password)
	key := argon2.IDKey(owned, salt, Argon2Time, Argon2MemoryKiB, Argon2Parallelism, Argon2OutputLen)
	SecureWipe(owned)
	return key, nil
}

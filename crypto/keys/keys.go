// Package keys implements secp256k1 identity material for the BuildIt core:
// keypair generation with x-only public keys, BIP-340 Schnorr signatures,
// ECDH conversation-key derivation and the password-based key hierarchy.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/primitives"
)

// PrivateKeySize is the length of a secp256k1 scalar in bytes.
const PrivateKeySize = 32

// PublicKeySize is the length of an x-only public key in bytes.
const PublicKeySize = 32

// KeyPair holds a secp256k1 scalar and its x-only public key (hex-encoded on
// the boundary). The private half must be destroyed with Destroy when the
// pair leaves use; callers should avoid copying it.
type KeyPair struct {
	PrivateKey []byte
	PublicKey  string
}

// Generate draws a fresh uniform scalar from the OS CSPRNG, rejecting zero
// and values at or above the group order.
func Generate() (*KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", builditcrypto.ErrRandomGenerationFailed)
	}
	kp := &KeyPair{
		PrivateKey: priv.Serialize(),
		PublicKey:  xOnlyHex(priv.PubKey()),
	}
	priv.Zero()
	return kp, nil
}

// FromPrivateKey builds a KeyPair from an existing 32-byte scalar.
func FromPrivateKey(privateKey []byte) (*KeyPair, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	kp := &KeyPair{
		PrivateKey: priv.Serialize(),
		PublicKey:  xOnlyHex(priv.PubKey()),
	}
	priv.Zero()
	return kp, nil
}

// Destroy wipes the private half in place.
func (kp *KeyPair) Destroy() {
	primitives.SecureWipe(kp.PrivateKey)
}

// Fingerprint returns a short base58 identifier for the public key, safe to
// log.
func (kp *KeyPair) Fingerprint() string {
	return Fingerprint(kp.PublicKey)
}

// String redacts the private key.
func (kp *KeyPair) String() string {
	return fmt.Sprintf("KeyPair{PrivateKey: [REDACTED], PublicKey: %s}", kp.PublicKey)
}

// GoString redacts the private key in %#v output as well.
func (kp *KeyPair) GoString() string {
	return kp.String()
}

// PublicFromPrivate returns the x-only hex public key for a 32-byte scalar.
func PublicFromPrivate(privateKey []byte) (string, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	pub := xOnlyHex(priv.PubKey())
	priv.Zero()
	return pub, nil
}

// Fingerprint returns the first 8 bytes of SHA-256 over the x-only public
// key, base58-encoded. Invalid hex yields the fingerprint of the raw string
// bytes so the function stays total for logging.
func Fingerprint(publicKeyHex string) string {
	b, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		b = []byte(publicKeyHex)
	}
	sum := sha256.Sum256(b)
	return base58.Encode(sum[:8])
}

// parsePrivateKey validates and parses a scalar, rejecting zero and values at
// or above the group order.
func parsePrivateKey(privateKey []byte) (*secp256k1.PrivateKey, error) {
	if len(privateKey) != PrivateKeySize {
		return nil, builditcrypto.ErrInvalidKey
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(privateKey); overflow || s.IsZero() {
		s.Zero()
		return nil, builditcrypto.ErrInvalidKey
	}
	return secp256k1.NewPrivateKey(&s), nil
}

// parseXOnlyPubKey lifts a 32-byte x coordinate to a point. X-only keys omit
// the parity bit; 0x02 is tried first with 0x03 as fallback (either parity
// yields the same x in ECDH).
func parseXOnlyPubKey(publicKeyHex string) (*secp256k1.PublicKey, error) {
	xBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(xBytes) != PublicKeySize {
		return nil, builditcrypto.ErrInvalidPublicKey
	}
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, xBytes...)
	pub, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		compressed[0] = 0x03
		pub, err = secp256k1.ParsePubKey(compressed)
		if err != nil {
			return nil, builditcrypto.ErrInvalidPublicKey
		}
	}
	return pub, nil
}

// xOnlyHex drops the parity byte from a compressed encoding.
func xOnlyHex(pub *secp256k1.PublicKey) string {
	return hex.EncodeToString(pub.SerializeCompressed()[1:])
}

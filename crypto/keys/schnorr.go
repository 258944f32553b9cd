package keys

import (
	"crypto/sha256"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/internal/metrics"
)

// SignatureSize is the length of a BIP-340 signature in bytes.
const SignatureSize = 64

// SchnorrSign hashes message with SHA-256 and signs the digest with BIP-340
// Schnorr. Use SchnorrSignDigest when the message already is a 32-byte hash
// (event ids are signed raw).
func SchnorrSign(message, privateKey []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return SchnorrSignDigest(digest[:], privateKey)
}

// SchnorrSignDigest signs a 32-byte digest with BIP-340 Schnorr.
func SchnorrSignDigest(digest, privateKey []byte) ([]byte, error) {
	start := time.Now()
	sig, err := schnorrSignDigest(digest, privateKey)
	metrics.ObserveOperation("sign", "schnorr", start, err)
	return sig, err
}

func schnorrSignDigest(digest, privateKey []byte) ([]byte, error) {
	if len(digest) != sha256.Size {
		return nil, builditcrypto.ErrSigningFailed
	}
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	sig, err := schnorr.Sign(priv, digest)
	if err != nil {
		return nil, builditcrypto.ErrSigningFailed
	}
	return sig.Serialize(), nil
}

// SchnorrVerify verifies a BIP-340 signature over the SHA-256 digest of
// message against a 32-byte x-only public key. A malformed signature or key
// is an error; a well-formed signature that does not verify returns false.
func SchnorrVerify(message, signature, publicKey []byte) (bool, error) {
	digest := sha256.Sum256(message)
	return SchnorrVerifyDigest(digest[:], signature, publicKey)
}

// SchnorrVerifyDigest verifies a BIP-340 signature over a raw 32-byte digest.
func SchnorrVerifyDigest(digest, signature, publicKey []byte) (bool, error) {
	start := time.Now()
	ok, err := schnorrVerifyDigest(digest, signature, publicKey)
	metrics.ObserveOperation("verify", "schnorr", start, err)
	return ok, err
}

func schnorrVerifyDigest(digest, signature, publicKey []byte) (bool, error) {
	if len(signature) != SignatureSize {
		return false, builditcrypto.ErrInvalidSignature
	}
	if len(publicKey) != PublicKeySize {
		return false, builditcrypto.ErrInvalidPublicKey
	}
	if len(digest) != sha256.Size {
		return false, builditcrypto.ErrInvalidSignature
	}

	pub, err := schnorr.ParsePubKey(publicKey)
	if err != nil {
		return false, builditcrypto.ErrInvalidPublicKey
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false, builditcrypto.ErrInvalidSignature
	}
	return sig.Verify(digest, pub), nil
}

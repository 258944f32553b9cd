// Package nip44 implements the NIP-44 version 2 payload cipher: a padded
// ChaCha20-Poly1305 envelope with HKDF-derived per-message keys and an
// HMAC-SHA256 authenticator, carried as base64.
//
// Wire layout (decoded): version(1) ‖ nonce(32) ‖ ciphertext ‖ mac(32).
// The MAC covers nonce ‖ ciphertext and is verified in constant time before
// any decryption is attempted.
package nip44

import (
	"crypto/hmac"
	"encoding/base64"
	"math/bits"
	"time"
	"unicode/utf8"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/keys"
	"github.com/buildit-network/buildit/crypto/primitives"
	"github.com/buildit-network/buildit/internal/metrics"
)

// Version is the NIP-44 version byte.
const Version byte = 2

// MinPayloadSize is the decoded length below which a payload is rejected
// before any MAC work: version(1) + nonce(32) + 34 + mac(32), where 34 is
// the length prefix plus the 32-byte minimum padding. The ciphertext written
// by EncryptWithKey also carries the 16-byte Poly1305 tag, so its payloads
// are at least 115 bytes.
const MinPayloadSize = 99

const (
	nonceSize      = 32
	macSize        = 32
	keyMaterialLen = 76 // 32 chacha key + 12 chacha nonce + 32 hmac key
)

var hkdfInfo = []byte("nip44-v2")

// Encrypt derives the conversation key between privateKey and the peer's
// x-only public key, then encrypts plaintext with it.
func Encrypt(privateKey []byte, peerPublicKeyHex, plaintext string) (string, error) {
	conversationKey, err := keys.DeriveConversationKey(privateKey, peerPublicKeyHex)
	if err != nil {
		return "", err
	}
	defer primitives.SecureWipe(conversationKey)
	return EncryptWithKey(conversationKey, plaintext)
}

// Decrypt derives the conversation key between privateKey and the peer's
// x-only public key, then decrypts payload with it.
func Decrypt(privateKey []byte, peerPublicKeyHex, payload string) (string, error) {
	conversationKey, err := keys.DeriveConversationKey(privateKey, peerPublicKeyHex)
	if err != nil {
		return "", err
	}
	defer primitives.SecureWipe(conversationKey)
	return DecryptWithKey(conversationKey, payload)
}

// EncryptWithKey encrypts plaintext under a pre-derived 32-byte conversation
// key. Use this form when the caller caches conversation keys.
func EncryptWithKey(conversationKey []byte, plaintext string) (string, error) {
	start := time.Now()
	out, err := encryptWithKey(conversationKey, plaintext)
	metrics.ObserveOperation("encrypt", "nip44", start, err)
	return out, err
}

func encryptWithKey(conversationKey []byte, plaintext string) (string, error) {
	if len(conversationKey) != 32 {
		return "", builditcrypto.ErrInvalidKey
	}

	nonce, err := primitives.RandomBytes(nonceSize)
	if err != nil {
		return "", err
	}

	keyMaterial, err := primitives.HKDFSHA256(nonce, conversationKey, hkdfInfo, keyMaterialLen)
	if err != nil {
		return "", err
	}
	defer primitives.SecureWipe(keyMaterial)

	chachaKey := keyMaterial[0:32]
	chachaNonce := keyMaterial[32:44]
	hmacKey := keyMaterial[44:76]

	padded, err := pad([]byte(plaintext))
	if err != nil {
		return "", err
	}

	ciphertext, err := primitives.ChaCha20Poly1305Seal(chachaKey, chachaNonce, padded, nil)
	if err != nil {
		return "", err
	}

	mac := hmacOverPayload(hmacKey, nonce, ciphertext)

	payload := make([]byte, 0, 1+nonceSize+len(ciphertext)+macSize)
	payload = append(payload, Version)
	payload = append(payload, nonce...)
	payload = append(payload, ciphertext...)
	payload = append(payload, mac...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecryptWithKey decrypts a payload under a pre-derived 32-byte conversation
// key. The MAC is checked before decryption; a MAC mismatch is reported as
// ErrInvalidMac, a bad length prefix or non-zero padding as ErrInvalidPadding,
// and an AEAD or UTF-8 failure as ErrDecryptionFailed.
func DecryptWithKey(conversationKey []byte, payload string) (string, error) {
	start := time.Now()
	out, err := decryptWithKey(conversationKey, payload)
	metrics.ObserveOperation("decrypt", "nip44", start, err)
	return out, err
}

func decryptWithKey(conversationKey []byte, payload string) (string, error) {
	if len(conversationKey) != 32 {
		return "", builditcrypto.ErrInvalidKey
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", builditcrypto.ErrInvalidCiphertext
	}
	if len(decoded) < MinPayloadSize {
		return "", builditcrypto.ErrInvalidCiphertext
	}
	if decoded[0] != Version {
		return "", builditcrypto.ErrInvalidCiphertext
	}

	nonce := decoded[1 : 1+nonceSize]
	ciphertext := decoded[1+nonceSize : len(decoded)-macSize]
	receivedMac := decoded[len(decoded)-macSize:]

	keyMaterial, err := primitives.HKDFSHA256(nonce, conversationKey, hkdfInfo, keyMaterialLen)
	if err != nil {
		return "", err
	}
	defer primitives.SecureWipe(keyMaterial)

	chachaKey := keyMaterial[0:32]
	chachaNonce := keyMaterial[32:44]
	hmacKey := keyMaterial[44:76]

	// MAC-then-decrypt: no AEAD work happens on a forged payload.
	expectedMac := hmacOverPayload(hmacKey, nonce, ciphertext)
	if !hmac.Equal(expectedMac, receivedMac) {
		return "", builditcrypto.ErrInvalidMac
	}

	padded, err := primitives.ChaCha20Poly1305Open(chachaKey, chachaNonce, ciphertext, nil)
	if err != nil {
		return "", builditcrypto.ErrDecryptionFailed
	}

	plaintext, err := unpad(padded)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", builditcrypto.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func hmacOverPayload(hmacKey, nonce, ciphertext []byte) []byte {
	msg := make([]byte, 0, len(nonce)+len(ciphertext))
	msg = append(msg, nonce...)
	msg = append(msg, ciphertext...)
	return primitives.HMACSHA256(hmacKey, msg)
}

// calcPaddedLen returns the padded length for an unpadded length using the
// power-of-two chunk scheme.
func calcPaddedLen(unpaddedLen int) int {
	if unpaddedLen <= 32 {
		return 32
	}
	nextPower := 1 << bits.Len(uint(unpaddedLen-1))
	chunk := 32
	if nextPower > 256 {
		chunk = nextPower / 8
	}
	return chunk * ((unpaddedLen + chunk - 1) / chunk)
}

// pad prefixes the big-endian u16 length and zero-fills to the padded size.
func pad(plaintext []byte) ([]byte, error) {
	unpaddedLen := len(plaintext)
	if unpaddedLen < 1 || unpaddedLen > 65535 {
		return nil, builditcrypto.ErrInvalidPlaintextLength
	}

	padded := make([]byte, 2+calcPaddedLen(unpaddedLen))
	padded[0] = byte(unpaddedLen >> 8)
	padded[1] = byte(unpaddedLen)
	copy(padded[2:], plaintext)
	return padded, nil
}

// unpad reads the length prefix, checks it and verifies the tail is zeros.
func unpad(padded []byte) ([]byte, error) {
	if len(padded) < 2 {
		return nil, builditcrypto.ErrInvalidPadding
	}

	unpaddedLen := int(padded[0])<<8 | int(padded[1])
	if unpaddedLen < 1 || unpaddedLen > 65535 {
		return nil, builditcrypto.ErrInvalidPadding
	}
	if 2+unpaddedLen > len(padded) {
		return nil, builditcrypto.ErrInvalidPadding
	}
	for _, b := range padded[2+unpaddedLen:] {
		if b != 0 {
			return nil, builditcrypto.ErrInvalidPadding
		}
	}
	return padded[2 : 2+unpaddedLen], nil
}

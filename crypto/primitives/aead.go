package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	builditcrypto "github.com/buildit-network/buildit/crypto"
)

// AESGCMNonceSize is the nonce length used by the AES-256-GCM envelope.
const AESGCMNonceSize = 12

// EncryptedData is an AES-256-GCM ciphertext together with the nonce that
// produced it. The nonce is generated per call and never reused for a key.
type EncryptedData struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

// ChaCha20Poly1305Seal encrypts plaintext under key with the given 12-byte
// nonce and additional data. The returned ciphertext includes the 16-byte tag.
func ChaCha20Poly1305Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305 seal: %w", builditcrypto.ErrEncryptionFailed)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("chacha20poly1305 seal: %w", builditcrypto.ErrEncryptionFailed)
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// ChaCha20Poly1305Open decrypts and authenticates a ciphertext produced by
// ChaCha20Poly1305Seal.
func ChaCha20Poly1305Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305 open: %w", builditcrypto.ErrDecryptionFailed)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("chacha20poly1305 open: %w", builditcrypto.ErrDecryptionFailed)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, builditcrypto.ErrDecryptionFailed
	}
	return plaintext, nil
}

// AESEncrypt encrypts plaintext with AES-256-GCM under a 32-byte key,
// generating a fresh random nonce.
func AESEncrypt(key, plaintext []byte) (*EncryptedData, error) {
	if len(key) != 32 {
		return nil, builditcrypto.ErrInvalidKey
	}
	nonce, err := RandomBytes(AESGCMNonceSize)
	if err != nil {
		return nil, err
	}
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}
	return &EncryptedData{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Nonce:      nonce,
	}, nil
}

// AESDecrypt decrypts data produced by AESEncrypt.
func AESDecrypt(key []byte, encrypted *EncryptedData) ([]byte, error) {
	if len(key) != 32 {
		return nil, builditcrypto.ErrInvalidKey
	}
	if encrypted == nil || len(encrypted.Nonce) != AESGCMNonceSize {
		return nil, builditcrypto.ErrInvalidCiphertext
	}
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, encrypted.Nonce, encrypted.Ciphertext, nil)
	if err != nil {
		return nil, builditcrypto.ErrDecryptionFailed
	}
	return plaintext, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", builditcrypto.ErrInvalidKey)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", builditcrypto.ErrEncryptionFailed)
	}
	return aead, nil
}

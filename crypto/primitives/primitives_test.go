package primitives

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	builditcrypto "github.com/buildit-network/buildit/crypto"
)

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(32)
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := RandomBytes(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestConstantTimeEq(t *testing.T) {
	require.True(t, ConstantTimeEq([]byte{1, 2, 3}, []byte{1, 2, 3}))
	require.False(t, ConstantTimeEq([]byte{1, 2, 3}, []byte{1, 2, 4}))
	require.False(t, ConstantTimeEq([]byte{1, 2, 3}, []byte{1, 2}))
	require.True(t, ConstantTimeEq(nil, nil))
}

func TestHKDFSHA256Vector(t *testing.T) {
	// RFC 5869 test case 1.
	ikm, _ := hex.DecodeString("0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b")
	salt, _ := hex.DecodeString("000102030405060708090a0b0c")
	info, _ := hex.DecodeString("f0f1f2f3f4f5f6f7f8f9")

	okm, err := HKDFSHA256(salt, ikm, info, 42)
	require.NoError(t, err)
	require.Equal(t,
		"3cb25f25faacd57a90434f64d0362f2a2d2d0a90cf1a5a4c5db02d56ecc4c5bf34007208d5b887185865",
		hex.EncodeToString(okm))
}

func TestHKDFSHA256EmptySalt(t *testing.T) {
	okm, err := HKDFSHA256(nil, []byte("input"), []byte("info"), 32)
	require.NoError(t, err)
	require.Len(t, okm, 32)
}

func TestHMACSHA256Vector(t *testing.T) {
	// RFC 4231 test case 2.
	mac := HMACSHA256([]byte("Jefe"), []byte("what do ya want for nothing?"))
	require.Equal(t,
		"5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
		hex.EncodeToString(mac))
}

func TestChaCha20Poly1305RoundTrip(t *testing.T) {
	key := make([]byte, 32)
	nonce := make([]byte, 12)
	plaintext := []byte("attack at dawn")
	aad := []byte("header")

	ciphertext, err := ChaCha20Poly1305Seal(key, nonce, plaintext, aad)
	require.NoError(t, err)
	require.Len(t, ciphertext, len(plaintext)+16)

	decrypted, err := ChaCha20Poly1305Open(key, nonce, ciphertext, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		bad := append([]byte(nil), ciphertext...)
		bad[3] ^= 0xff
		_, err := ChaCha20Poly1305Open(key, nonce, bad, aad)
		require.ErrorIs(t, err, builditcrypto.ErrDecryptionFailed)
	})

	t.Run("wrong aad fails", func(t *testing.T) {
		_, err := ChaCha20Poly1305Open(key, nonce, ciphertext, []byte("other"))
		require.ErrorIs(t, err, builditcrypto.ErrDecryptionFailed)
	})

	t.Run("bad key length fails", func(t *testing.T) {
		_, err := ChaCha20Poly1305Seal(make([]byte, 16), nonce, plaintext, nil)
		require.Error(t, err)
	})
}

func TestAESRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	plaintext := []byte("Hello, World!")

	encrypted, err := AESEncrypt(key, plaintext)
	require.NoError(t, err)
	require.Len(t, encrypted.Nonce, AESGCMNonceSize)
	require.NotEqual(t, plaintext, encrypted.Ciphertext)

	decrypted, err := AESDecrypt(key, encrypted)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestAESWrongKey(t *testing.T) {
	key := make([]byte, 32)
	wrongKey := make([]byte, 32)
	wrongKey[0] = 1

	encrypted, err := AESEncrypt(key, []byte("secret data"))
	require.NoError(t, err)

	_, err = AESDecrypt(wrongKey, encrypted)
	require.ErrorIs(t, err, builditcrypto.ErrDecryptionFailed)
}

func TestAESTamperedCiphertext(t *testing.T) {
	key := make([]byte, 32)
	encrypted, err := AESEncrypt(key, []byte("secret data"))
	require.NoError(t, err)

	encrypted.Ciphertext[0] ^= 0xff
	_, err = AESDecrypt(key, encrypted)
	require.ErrorIs(t, err, builditcrypto.ErrDecryptionFailed)
}

func TestAESInvalidKeyLength(t *testing.T) {
	_, err := AESEncrypt(make([]byte, 16), []byte("test"))
	require.ErrorIs(t, err, builditcrypto.ErrInvalidKey)
}

func TestAESUniqueNonces(t *testing.T) {
	key := make([]byte, 32)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		encrypted, err := AESEncrypt(key, []byte("same message"))
		require.NoError(t, err)
		seen[string(encrypted.Nonce)] = struct{}{}
	}
	require.Len(t, seen, 100)
}

func TestArgon2id(t *testing.T) {
	salt := make([]byte, 32)

	key, err := Argon2id([]byte("correct horse battery staple"), salt)
	require.NoError(t, err)
	require.Len(t, key, 32)

	again, err := Argon2id([]byte("correct horse battery staple"), salt)
	require.NoError(t, err)
	require.Equal(t, key, again)
}

func TestArgon2idShortSalt(t *testing.T) {
	_, err := Argon2id([]byte("password"), make([]byte, 15))
	require.ErrorIs(t, err, builditcrypto.ErrKeyDerivationFailed)
}

func TestSecureWipe(t *testing.T) {
	buf := []byte{0xde, 0xad, 0xbe, 0xef}
	SecureWipe(buf)
	require.Equal(t, make([]byte, 4), buf)

	SecureWipe(nil) // must not panic
}

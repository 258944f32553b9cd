package nip44

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/keys"
)

func TestCalcPaddedLen(t *testing.T) {
	cases := map[int]int{
		1:     32,
		32:    32,
		33:    64,
		100:   128,
		256:   256,
		257:   320,
		512:   512,
		1000:  1024,
		2048:  2048,
		65535: 65536,
	}
	for unpadded, padded := range cases {
		require.Equal(t, padded, calcPaddedLen(unpadded), "unpadded length %d", unpadded)
	}
}

func TestPadUnpadRoundTrip(t *testing.T) {
	for _, n := range []int{1, 31, 32, 33, 100, 256, 257, 1000} {
		original := make([]byte, n)
		for i := range original {
			original[i] = byte(i)
		}
		padded, err := pad(original)
		require.NoError(t, err)
		require.Equal(t, 2+calcPaddedLen(n), len(padded))

		unpadded, err := unpad(padded)
		require.NoError(t, err)
		require.Equal(t, original, unpadded)
	}
}

func TestPadRejectsBadLengths(t *testing.T) {
	_, err := pad(nil)
	require.ErrorIs(t, err, builditcrypto.ErrInvalidPlaintextLength)

	_, err = pad(make([]byte, 65536))
	require.ErrorIs(t, err, builditcrypto.ErrInvalidPlaintextLength)
}

func TestUnpadRejectsNonZeroTail(t *testing.T) {
	padded, err := pad([]byte("hi"))
	require.NoError(t, err)
	padded[len(padded)-1] = 1

	_, err = unpad(padded)
	require.ErrorIs(t, err, builditcrypto.ErrInvalidPadding)
}

func TestEncryptDecrypt(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	plaintext := "Hello, this is a secret message!"

	encrypted, err := Encrypt(sender.PrivateKey, recipient.PublicKey, plaintext)
	require.NoError(t, err)

	decrypted, err := Decrypt(recipient.PrivateKey, sender.PublicKey, encrypted)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestEncryptDecryptUnicode(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	plaintext := "Hello 世界! 🌍 Привет!"

	encrypted, err := Encrypt(sender.PrivateKey, recipient.PublicKey, plaintext)
	require.NoError(t, err)

	decrypted, err := Decrypt(recipient.PrivateKey, sender.PublicKey, encrypted)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestEncryptNondeterministic(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	first, err := Encrypt(sender.PrivateKey, recipient.PublicKey, "same plaintext")
	require.NoError(t, err)
	second, err := Encrypt(sender.PrivateKey, recipient.PublicKey, "same plaintext")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)
	wrong, err := keys.Generate()
	require.NoError(t, err)

	encrypted, err := Encrypt(sender.PrivateKey, recipient.PublicKey, "secret message")
	require.NoError(t, err)

	_, err = Decrypt(wrong.PrivateKey, sender.PublicKey, encrypted)
	require.Error(t, err)
}

func TestWithKeyCrossParty(t *testing.T) {
	alice, err := keys.Generate()
	require.NoError(t, err)
	bob, err := keys.Generate()
	require.NoError(t, err)

	aliceKey, err := keys.DeriveConversationKey(alice.PrivateKey, bob.PublicKey)
	require.NoError(t, err)
	bobKey, err := keys.DeriveConversationKey(bob.PrivateKey, alice.PublicKey)
	require.NoError(t, err)
	require.Equal(t, aliceKey, bobKey)

	encrypted, err := EncryptWithKey(aliceKey, "Secret from Alice to Bob!")
	require.NoError(t, err)

	decrypted, err := DecryptWithKey(bobKey, encrypted)
	require.NoError(t, err)
	require.Equal(t, "Secret from Alice to Bob!", decrypted)
}

func TestWithKeyRejectsBadKeyLength(t *testing.T) {
	_, err := EncryptWithKey(make([]byte, 16), "test")
	require.ErrorIs(t, err, builditcrypto.ErrInvalidKey)

	_, err = DecryptWithKey(make([]byte, 16), "test")
	require.ErrorIs(t, err, builditcrypto.ErrInvalidKey)
}

func TestDecryptRejectsShortPayload(t *testing.T) {
	key := make([]byte, 32)

	short := base64.StdEncoding.EncodeToString(make([]byte, MinPayloadSize-1))
	_, err := DecryptWithKey(key, short)
	require.ErrorIs(t, err, builditcrypto.ErrInvalidCiphertext)
}

func TestDecryptRejectsWrongVersion(t *testing.T) {
	key := make([]byte, 32)

	payload := make([]byte, MinPayloadSize)
	payload[0] = 1
	_, err := DecryptWithKey(key, base64.StdEncoding.EncodeToString(payload))
	require.ErrorIs(t, err, builditcrypto.ErrInvalidCiphertext)
}

func TestDecryptRejectsBadBase64(t *testing.T) {
	_, err := DecryptWithKey(make([]byte, 32), "!!! not base64 !!!")
	require.ErrorIs(t, err, builditcrypto.ErrInvalidCiphertext)
}

// Any single mutated byte after the version byte must be caught by the MAC
// before decryption is attempted.
func TestTamperDetectionReportsInvalidMac(t *testing.T) {
	alice, err := keys.Generate()
	require.NoError(t, err)
	bob, err := keys.Generate()
	require.NoError(t, err)

	encrypted, err := Encrypt(alice.PrivateKey, bob.PublicKey, "secret")
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)

	decoded[40] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(decoded)

	_, err = Decrypt(bob.PrivateKey, alice.PublicKey, tampered)
	require.ErrorIs(t, err, builditcrypto.ErrInvalidMac)
	require.NotErrorIs(t, err, builditcrypto.ErrDecryptionFailed)
}

func TestTamperAnywhereFails(t *testing.T) {
	alice, err := keys.Generate()
	require.NoError(t, err)
	bob, err := keys.Generate()
	require.NoError(t, err)

	encrypted, err := Encrypt(alice.PrivateKey, bob.PublicKey, "integrity matters")
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)

	for _, idx := range []int{1, 16, 33, len(decoded) / 2, len(decoded) - 1} {
		mutated := append([]byte(nil), decoded...)
		mutated[idx] ^= 0xff
		_, err := Decrypt(bob.PrivateKey, alice.PublicKey, base64.StdEncoding.EncodeToString(mutated))
		require.Error(t, err, "mutation at byte %d must fail", idx)
	}
}

func TestRoundTripAcrossSizes(t *testing.T) {
	alice, err := keys.Generate()
	require.NoError(t, err)
	bob, err := keys.Generate()
	require.NoError(t, err)

	conversationKey, err := keys.DeriveConversationKey(alice.PrivateKey, bob.PublicKey)
	require.NoError(t, err)

	for _, n := range []int{1, 100, 4096, 65535} {
		plaintext := strings.Repeat("a", n)
		encrypted, err := EncryptWithKey(conversationKey, plaintext)
		require.NoError(t, err)

		decrypted, err := DecryptWithKey(conversationKey, encrypted)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted, "size %d", n)
	}
}

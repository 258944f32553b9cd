package duress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	salt := make([]byte, 32)

	hash, err := HashPassword([]byte("duress123"), salt)
	require.NoError(t, err)
	require.Len(t, hash, 32)

	again, err := HashPassword([]byte("duress123"), salt)
	require.NoError(t, err)
	require.Equal(t, hash, again)
}

func TestHashPasswordDifferentSalts(t *testing.T) {
	salt1 := make([]byte, 32)
	salt2 := make([]byte, 32)
	salt2[0] = 1

	hash1, err := HashPassword([]byte("duress123"), salt1)
	require.NoError(t, err)
	hash2, err := HashPassword([]byte("duress123"), salt2)
	require.NoError(t, err)
	require.NotEqual(t, hash1, hash2)
}

func TestHashPasswordShortSalt(t *testing.T) {
	_, err := HashPassword([]byte("pw"), make([]byte, 8))
	require.Error(t, err)
}

func TestCheckPassword(t *testing.T) {
	salt := make([]byte, 32)
	normalPassword := []byte("normal123")
	duressPassword := []byte("help")

	storedNormalHash, err := HashPassword(normalPassword, salt)
	require.NoError(t, err)
	storedDuressHash, err := HashPassword(duressPassword, salt)
	require.NoError(t, err)

	t.Run("duress password detected", func(t *testing.T) {
		result, err := CheckPassword(duressPassword, salt, storedDuressHash, storedNormalHash)
		require.NoError(t, err)
		require.True(t, result.IsDuress)
		require.True(t, result.PasswordValid)
	})

	t.Run("normal login not flagged", func(t *testing.T) {
		result, err := CheckPassword(normalPassword, salt, storedDuressHash, storedNormalHash)
		require.NoError(t, err)
		require.False(t, result.IsDuress)
		require.True(t, result.PasswordValid)
	})

	t.Run("wrong password invalid", func(t *testing.T) {
		result, err := CheckPassword([]byte("wrong"), salt, storedDuressHash, storedNormalHash)
		require.NoError(t, err)
		require.False(t, result.IsDuress)
		require.False(t, result.PasswordValid)
	})
}

func TestValidatePassword(t *testing.T) {
	t.Run("rejects identical", func(t *testing.T) {
		require.False(t, ValidatePassword([]byte("mypassword123"), []byte("mypassword123")))
	})

	t.Run("rejects reversed", func(t *testing.T) {
		require.False(t, ValidatePassword([]byte("drowssap"), []byte("password")))
	})

	t.Run("rejects too short", func(t *testing.T) {
		require.False(t, ValidatePassword([]byte("abc"), []byte("normalpassword")))
	})

	t.Run("rejects single append", func(t *testing.T) {
		require.False(t, ValidatePassword([]byte("password1"), []byte("password")))
	})

	t.Run("rejects single prepend", func(t *testing.T) {
		require.False(t, ValidatePassword([]byte("1password"), []byte("password")))
	})

	t.Run("accepts distinct", func(t *testing.T) {
		require.True(t, ValidatePassword([]byte("help"), []byte("normalpassword")))
	})
}

func TestSecureDestroyKey(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = 0xab
	}
	require.NoError(t, SecureDestroyKey(key))
	require.Equal(t, make([]byte, 32), key)

	require.NoError(t, SecureDestroyKey(nil))
}

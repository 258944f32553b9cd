package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt(32)
	require.NoError(t, err)
	require.Len(t, salt, 32)

	other, err := GenerateSalt(32)
	require.NoError(t, err)
	require.NotEqual(t, salt, other)
}

func TestHexConversion(t *testing.T) {
	original := []byte{0x01, 0x02, 0x03, 0xab, 0xcd, 0xef}

	encoded := BytesToHex(original)
	require.Equal(t, "010203abcdef", encoded)

	decoded, err := HexToBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestHexToBytesInvalid(t *testing.T) {
	_, err := HexToBytes("not hex")
	require.ErrorIs(t, err, ErrInvalidHex)
}

func TestRandomizeTimestamp(t *testing.T) {
	base := int64(1700000000)
	rangeSeconds := uint32(172800) // 2 days

	seen := make(map[int64]struct{})
	for i := 0; i < 100; i++ {
		randomized, err := RandomizeTimestamp(base, rangeSeconds)
		require.NoError(t, err)
		require.GreaterOrEqual(t, randomized, base-int64(rangeSeconds))
		require.LessOrEqual(t, randomized, base+int64(rangeSeconds))
		seen[randomized] = struct{}{}
	}
	require.Greater(t, len(seen), 1, "randomization should produce varying timestamps")
}

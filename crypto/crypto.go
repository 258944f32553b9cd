// Package crypto holds the error taxonomy and small utility surface shared by
// every layer of the BuildIt cryptographic core.
//
// The core itself is split into feature packages (crypto/primitives,
// crypto/keys, nip44, nostr, nip17, ratchet, threshold, duress, schema,
// session); this package is what all of them agree on.
package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// GenerateSalt returns length random bytes from the OS CSPRNG.
func GenerateSalt(length int) ([]byte, error) {
	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", ErrRandomGenerationFailed)
	}
	return salt, nil
}

// BytesToHex encodes b as a lowercase hex string.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes a hex string.
func HexToBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidHex
	}
	return b, nil
}

// RandomizeTimestamp returns timestamp shifted by a uniform offset in
// [-rangeSeconds, +rangeSeconds]. The offset is drawn from the OS CSPRNG so
// the layers of a wrapped message cannot be correlated by clock.
func RandomizeTimestamp(timestamp int64, rangeSeconds uint32) (int64, error) {
	span := uint64(rangeSeconds)*2 + 1
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("randomize timestamp: %w", ErrRandomGenerationFailed)
	}
	offset := int64(binary.BigEndian.Uint64(buf[:])%span) - int64(rangeSeconds)
	return timestamp + offset, nil
}

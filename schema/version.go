// Package schema implements cross-version content parsing: semantic version
// comparison and versioned JSON parsing with unknown-field preservation, so
// relays and forwarders can round-trip content written by newer clients.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	builditcrypto "github.com/buildit-network/buildit/crypto"
)

// DefaultVersion is assumed when the "_v" field is absent.
const DefaultVersion = "1.0.0"

// Version is a semantic schema version.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// ParseVersion parses a strict MAJOR.MINOR.PATCH string: exactly three
// numeric dot-separated components.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, builditcrypto.ErrInvalidVersion
	}
	nums := [3]uint32{}
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return Version{}, builditcrypto.ErrInvalidVersion
		}
		nums[i] = uint32(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// ParseVersionOrDefault parses s, defaulting to 1.0.0 when s is empty.
func ParseVersionOrDefault(s string) (Version, error) {
	if s == "" {
		return Version{Major: 1}, nil
	}
	return ParseVersion(s)
}

// String renders MAJOR.MINOR.PATCH.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 ordering v against other.
func (v Version) Compare(other Version) int {
	for _, pair := range [][2]uint32{{v.Major, other.Major}, {v.Minor, other.Minor}, {v.Patch, other.Patch}} {
		if pair[0] < pair[1] {
			return -1
		}
		if pair[0] > pair[1] {
			return 1
		}
	}
	return 0
}

// IsCompatibleWith reports whether content at v can be read by reader: same
// major version (minor and patch only add optional fields).
func (v Version) IsCompatibleWith(reader Version) bool {
	return v.Major == reader.Major
}

package keys

import (
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/primitives"
	"github.com/buildit-network/buildit/internal/metrics"
)

// HKDF salts and infos for the key hierarchy. These are wire constants shared
// with every other BuildIt client.
var (
	databaseKeySalt     = []byte("BuildItNetwork-DEK-v1")
	databaseKeyInfo     = []byte("database-encryption")
	conversationKeySalt = []byte("nip44-v2")
)

// MasterKeyScheme selects the password KDF for master-key derivation.
type MasterKeyScheme string

// SchemeArgon2id is the canonical scheme. A legacy PBKDF2 store must be
// migrated by the host; the core does not derive PBKDF2 keys.
const SchemeArgon2id MasterKeyScheme = "argon2id"

// DeriveMasterKey derives the 32-byte master encryption key from a password
// with Argon2id (64 MiB, t=3, p=4). Salts shorter than 16 bytes are rejected.
func DeriveMasterKey(password, salt []byte) ([]byte, error) {
	start := time.Now()
	key, err := primitives.Argon2id(password, salt)
	metrics.ObserveOperation("derive", "argon2id", start, err)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveMasterKeyWithScheme is the migration hook for hosts still holding
// keys derived under a legacy scheme: it dispatches on the recorded scheme
// and fails on anything the core no longer implements.
func DeriveMasterKeyWithScheme(scheme MasterKeyScheme, password, salt []byte) ([]byte, error) {
	switch scheme {
	case SchemeArgon2id:
		return DeriveMasterKey(password, salt)
	default:
		return nil, fmt.Errorf("master key scheme %q: %w", scheme, builditcrypto.ErrKeyDerivationFailed)
	}
}

// DeriveDatabaseKey derives the database encryption key from a 32-byte
// master key.
func DeriveDatabaseKey(masterKey []byte) ([]byte, error) {
	if len(masterKey) != 32 {
		return nil, builditcrypto.ErrInvalidKey
	}
	return primitives.HKDFSHA256(databaseKeySalt, masterKey, databaseKeyInfo, 32)
}

// DeriveConversationKey derives the NIP-44 conversation key between a private
// key and a peer's x-only public key: HKDF-SHA256 over the x coordinate of
// the ECDH shared point, salt "nip44-v2". Symmetric in the two parties.
func DeriveConversationKey(privateKey []byte, peerPublicKeyHex string) ([]byte, error) {
	start := time.Now()
	key, err := deriveConversationKey(privateKey, peerPublicKeyHex)
	metrics.ObserveOperation("derive", "nip44", start, err)
	return key, err
}

func deriveConversationKey(privateKey []byte, peerPublicKeyHex string) ([]byte, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	pub, err := parseXOnlyPubKey(peerPublicKeyHex)
	if err != nil {
		return nil, err
	}

	// x coordinate of the shared point, per RFC 5903.
	sharedX := secp256k1.GenerateSharedSecret(priv, pub)
	defer primitives.SecureWipe(sharedX)

	return primitives.HKDFSHA256(conversationKeySalt, sharedX, nil, 32)
}

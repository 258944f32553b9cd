package duress

import (
	"encoding/hex"

	"github.com/buildit-network/buildit/crypto/keys"
)

// DecoyIdentity is a fully formed keypair with innocuous profile text,
// shown after a duress unlock in place of the real identity.
type DecoyIdentity struct {
	KeyPair     *keys.KeyPair
	DisplayName string
	About       string
	CreatedAt   int64
}

// DecoyContact is a cosmetic contact entry for the decoy identity. No real
// interaction ever happens with these keys.
type DecoyContact struct {
	PubKey      string
	DisplayName string
}

// Generic enough to not draw attention.
var decoyDisplayNames = []string{
	"Alex", "Jordan", "Sam", "Casey", "Riley", "Morgan", "Taylor", "Quinn",
}

var decoyAboutTexts = []string{
	"Just here to chat",
	"Learning about Nostr",
	"Tech enthusiast",
	"New to this",
	"Hello world",
	"Testing things out",
	"Curious explorer",
	"Casual user",
}

var decoyContactNames = []string{
	"Mom", "Dad", "Alex", "Jamie", "Chris", "Pat", "Sam", "Jordan",
	"Taylor", "Morgan", "Casey", "Riley", "Avery", "Quinn", "Drew", "Skyler",
}

// GenerateDecoyIdentity creates a fresh keypair with profile text picked
// deterministically from the first two public-key bytes, so the same decoy
// always renders the same way.
func GenerateDecoyIdentity(createdAt int64) (*DecoyIdentity, error) {
	keyPair, err := keys.Generate()
	if err != nil {
		return nil, err
	}

	nameIdx, aboutIdx := 0, 0
	if pubKeyBytes, err := hex.DecodeString(keyPair.PublicKey); err == nil && len(pubKeyBytes) >= 2 {
		nameIdx = int(pubKeyBytes[0]) % len(decoyDisplayNames)
		aboutIdx = int(pubKeyBytes[1]) % len(decoyAboutTexts)
	}

	return &DecoyIdentity{
		KeyPair:     keyPair,
		DisplayName: decoyDisplayNames[nameIdx],
		About:       decoyAboutTexts[aboutIdx],
		CreatedAt:   createdAt,
	}, nil
}

// GenerateDecoyContacts creates up to count fake contacts with fresh keypairs
// and names from a fixed innocuous list.
func GenerateDecoyContacts(count int) ([]DecoyContact, error) {
	if count > len(decoyContactNames) {
		count = len(decoyContactNames)
	}
	contacts := make([]DecoyContact, 0, count)
	for _, name := range decoyContactNames[:count] {
		keyPair, err := keys.Generate()
		if err != nil {
			return nil, err
		}
		keyPair.Destroy() // only the public half is ever used
		contacts = append(contacts, DecoyContact{
			PubKey:      keyPair.PublicKey,
			DisplayName: name,
		})
	}
	return contacts, nil
}

// GenerateDecoyMessages returns the fixed set of innocuous conversation
// starters shown in the decoy identity's history.
func GenerateDecoyMessages() []string {
	return []string{
		"Hey, how's it going?",
		"Did you see the game last night?",
		"Can you pick up milk on the way home?",
		"Happy birthday!",
		"Thanks for dinner yesterday",
		"See you tomorrow",
		"Running late, be there in 10",
		"Good morning!",
	}
}

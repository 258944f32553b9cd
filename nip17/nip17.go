// Package nip17 implements the three-layer metadata-protecting envelope for
// private messages:
//
//  1. Rumor (kind 14): the unsigned inner message.
//  2. Seal (kind 13): the rumor encrypted to the recipient, signed by the
//     sender's real key.
//  3. Gift wrap (kind 1059): the seal encrypted to the recipient, signed by
//     a single-use ephemeral key.
//
// Each layer carries an independently randomized timestamp within ±2 days of
// the true send time, so a relay observer can neither link the layers by
// clock nor by signer.
package nip17

import (
	"fmt"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/keys"
	"github.com/buildit-network/buildit/nip44"
	"github.com/buildit-network/buildit/nostr"
)

// Event kinds for the three layers.
const (
	KindSeal     = 13
	KindRumor    = 14
	KindGiftWrap = 1059
)

// TimestampRange is the randomization window applied to each layer's
// created_at, in seconds (2 days).
const TimestampRange uint32 = 172800

// UnwrapResult is what the recipient recovers from a gift wrap. SealVerified
// reports whether the seal's signature checked out; an unverified seal is
// surfaced, not dropped.
type UnwrapResult struct {
	Rumor        *nostr.Event
	SenderPubKey string
	SealVerified bool
}

// CreateRumor builds the unsigned kind-14 inner event. The id is computed,
// the signature left empty.
func CreateRumor(senderPubKey, recipientPubKey, content string, createdAt int64) (*nostr.Event, error) {
	randomized, err := builditcrypto.RandomizeTimestamp(createdAt, TimestampRange)
	if err != nil {
		return nil, err
	}

	unsigned := nostr.UnsignedEvent{
		PubKey:    senderPubKey,
		CreatedAt: randomized,
		Kind:      KindRumor,
		Tags:      [][]string{{"p", recipientPubKey}},
		Content:   content,
	}
	id, err := nostr.ComputeEventID(unsigned)
	if err != nil {
		return nil, err
	}

	return &nostr.Event{
		ID:        id,
		PubKey:    unsigned.PubKey,
		CreatedAt: unsigned.CreatedAt,
		Kind:      unsigned.Kind,
		Tags:      unsigned.Tags,
		Content:   unsigned.Content,
		Sig:       "", // rumors are never signed
	}, nil
}

// CreateSeal encrypts the rumor to the recipient and signs the kind-13
// result with the sender's real key. Seals carry no tags.
func CreateSeal(senderPrivateKey []byte, recipientPubKey string, rumor *nostr.Event, createdAt int64) (*nostr.Event, error) {
	rumorJSON, err := nostr.SerializeEvent(rumor)
	if err != nil {
		return nil, err
	}

	encryptedRumor, err := nip44.Encrypt(senderPrivateKey, recipientPubKey, rumorJSON)
	if err != nil {
		return nil, fmt.Errorf("seal rumor: %w", err)
	}

	randomized, err := builditcrypto.RandomizeTimestamp(createdAt, TimestampRange)
	if err != nil {
		return nil, err
	}

	senderPubKey, err := keys.PublicFromPrivate(senderPrivateKey)
	if err != nil {
		return nil, err
	}

	return nostr.SignEvent(senderPrivateKey, nostr.UnsignedEvent{
		PubKey:    senderPubKey,
		CreatedAt: randomized,
		Kind:      KindSeal,
		Tags:      [][]string{},
		Content:   encryptedRumor,
	})
}

// CreateGiftWrap encrypts the seal to the recipient under a fresh ephemeral
// key and signs the kind-1059 result with that key. The ephemeral private
// key is wiped before returning; it is never persisted or reused.
func CreateGiftWrap(recipientPubKey string, seal *nostr.Event, createdAt int64) (*nostr.Event, error) {
	ephemeral, err := keys.Generate()
	if err != nil {
		return nil, err
	}
	defer ephemeral.Destroy()

	sealJSON, err := nostr.SerializeEvent(seal)
	if err != nil {
		return nil, err
	}

	encryptedSeal, err := nip44.Encrypt(ephemeral.PrivateKey, recipientPubKey, sealJSON)
	if err != nil {
		return nil, fmt.Errorf("wrap seal: %w", err)
	}

	randomized, err := builditcrypto.RandomizeTimestamp(createdAt, TimestampRange)
	if err != nil {
		return nil, err
	}

	return nostr.SignEvent(ephemeral.PrivateKey, nostr.UnsignedEvent{
		PubKey:    ephemeral.PublicKey,
		CreatedAt: randomized,
		Kind:      KindGiftWrap,
		Tags:      [][]string{{"p", recipientPubKey}},
		Content:   encryptedSeal,
	})
}

// Wrap runs the full rumor → seal → gift-wrap pipeline for one recipient.
func Wrap(senderPrivateKey []byte, recipientPubKey, content string, now int64) (*nostr.Event, error) {
	senderPubKey, err := keys.PublicFromPrivate(senderPrivateKey)
	if err != nil {
		return nil, err
	}
	rumor, err := CreateRumor(senderPubKey, recipientPubKey, content, now)
	if err != nil {
		return nil, err
	}
	seal, err := CreateSeal(senderPrivateKey, recipientPubKey, rumor, now)
	if err != nil {
		return nil, err
	}
	return CreateGiftWrap(recipientPubKey, seal, now)
}

// UnwrapGiftWrap peels both encrypted layers with the recipient's key. The
// seal signature is verified but a failure only clears SealVerified; the
// message itself is still returned so the caller can decide.
func UnwrapGiftWrap(recipientPrivateKey []byte, giftWrap *nostr.Event) (*UnwrapResult, error) {
	if giftWrap.Kind != KindGiftWrap {
		return nil, builditcrypto.ErrInvalidCiphertext
	}

	sealJSON, err := nip44.Decrypt(recipientPrivateKey, giftWrap.PubKey, giftWrap.Content)
	if err != nil {
		return nil, fmt.Errorf("open gift wrap: %w", err)
	}
	seal, err := nostr.DeserializeEvent(sealJSON)
	if err != nil {
		return nil, err
	}
	if seal.Kind != KindSeal {
		return nil, builditcrypto.ErrInvalidCiphertext
	}

	sealVerified := nostr.VerifyEvent(seal)
	senderPubKey := seal.PubKey

	rumorJSON, err := nip44.Decrypt(recipientPrivateKey, senderPubKey, seal.Content)
	if err != nil {
		return nil, fmt.Errorf("open seal: %w", err)
	}
	rumor, err := nostr.DeserializeEvent(rumorJSON)
	if err != nil {
		return nil, err
	}
	if rumor.Kind != KindRumor {
		return nil, builditcrypto.ErrInvalidCiphertext
	}

	return &UnwrapResult{
		Rumor:        rumor,
		SenderPubKey: senderPubKey,
		SealVerified: sealVerified,
	}, nil
}

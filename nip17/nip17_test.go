package nip17

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildit-network/buildit/crypto/keys"
)

func TestFullGiftWrapFlow(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	message := "Hello, Bob!"
	now := int64(1700000000)

	rumor, err := CreateRumor(sender.PublicKey, recipient.PublicKey, message, now)
	require.NoError(t, err)
	require.Equal(t, KindRumor, rumor.Kind)
	require.Empty(t, rumor.Sig, "rumor must never be signed")
	require.NotEmpty(t, rumor.ID)

	seal, err := CreateSeal(sender.PrivateKey, recipient.PublicKey, rumor, now)
	require.NoError(t, err)
	require.Equal(t, KindSeal, seal.Kind)
	require.Equal(t, sender.PublicKey, seal.PubKey)
	require.Empty(t, seal.Tags)
	require.NotEmpty(t, seal.Sig)

	giftWrap, err := CreateGiftWrap(recipient.PublicKey, seal, now)
	require.NoError(t, err)
	require.Equal(t, KindGiftWrap, giftWrap.Kind)
	require.NotEmpty(t, giftWrap.Sig)
	require.NotEqual(t, sender.PublicKey, giftWrap.PubKey, "gift wrap signer must be ephemeral")
	require.Equal(t, [][]string{{"p", recipient.PublicKey}}, giftWrap.Tags)

	result, err := UnwrapGiftWrap(recipient.PrivateKey, giftWrap)
	require.NoError(t, err)
	require.True(t, result.SealVerified)
	require.Equal(t, sender.PublicKey, result.SenderPubKey)
	require.Equal(t, message, result.Rumor.Content)
	require.Equal(t, KindRumor, result.Rumor.Kind)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	now := int64(1700000000)
	giftWrap, err := Wrap(sender.PrivateKey, recipient.PublicKey, "Hello, Bob!", now)
	require.NoError(t, err)

	result, err := UnwrapGiftWrap(recipient.PrivateKey, giftWrap)
	require.NoError(t, err)
	require.Equal(t, "Hello, Bob!", result.Rumor.Content)
	require.True(t, result.SealVerified)

	// The gift wrap's and the rumor's timestamps lie within the ±2 day window.
	require.GreaterOrEqual(t, giftWrap.CreatedAt, now-int64(TimestampRange))
	require.LessOrEqual(t, giftWrap.CreatedAt, now+int64(TimestampRange))
	require.GreaterOrEqual(t, result.Rumor.CreatedAt, now-int64(TimestampRange))
	require.LessOrEqual(t, result.Rumor.CreatedAt, now+int64(TimestampRange))
}

func TestUnwrapWrongRecipientFails(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)
	wrong, err := keys.Generate()
	require.NoError(t, err)

	giftWrap, err := Wrap(sender.PrivateKey, recipient.PublicKey, "Secret message", 1700000000)
	require.NoError(t, err)

	_, err = UnwrapGiftWrap(wrong.PrivateKey, giftWrap)
	require.Error(t, err)
}

func TestUnwrapRejectsWrongKind(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	giftWrap, err := Wrap(sender.PrivateKey, recipient.PublicKey, "msg", 1700000000)
	require.NoError(t, err)

	giftWrap.Kind = 1
	_, err = UnwrapGiftWrap(recipient.PrivateKey, giftWrap)
	require.Error(t, err)
}

func TestEphemeralKeysNeverReused(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		giftWrap, err := Wrap(sender.PrivateKey, recipient.PublicKey, "same message", 1700000000)
		require.NoError(t, err)
		_, dup := seen[giftWrap.PubKey]
		require.False(t, dup, "ephemeral pubkey reused")
		seen[giftWrap.PubKey] = struct{}{}
	}
}

func TestTimestampsRandomizedIndependently(t *testing.T) {
	sender, err := keys.Generate()
	require.NoError(t, err)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	now := int64(1700000000)
	timestamps := make(map[int64]struct{})
	for i := 0; i < 10; i++ {
		rumor, err := CreateRumor(sender.PublicKey, recipient.PublicKey, "Test", now)
		require.NoError(t, err)
		require.GreaterOrEqual(t, rumor.CreatedAt, now-int64(TimestampRange))
		require.LessOrEqual(t, rumor.CreatedAt, now+int64(TimestampRange))
		timestamps[rumor.CreatedAt] = struct{}{}
	}
	require.Greater(t, len(timestamps), 1)
}

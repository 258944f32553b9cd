// Package ratchet implements the Double Ratchet over secp256k1 for forward
// secrecy and post-compromise security: a symmetric HMAC chain yields one key
// per message, and every peer reply triggers a DH ratchet step that injects
// fresh entropy into the root chain.
//
// State is not safe for concurrent use; the session package provides the
// mutex-guarded wrapper exposed on the boundary.
package ratchet

import (
	"bytes"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/primitives"
	"github.com/buildit-network/buildit/internal/metrics"
)

// MaxSkip bounds the skipped-message key cache and the amount of chain
// winding a single header may demand.
const MaxSkip = 1000

var kdfRootInfo = []byte("BuildIt-Ratchet-RootKey")

// dhKeyPair is a ratchet Diffie-Hellman pair. Public keys are compressed
// secp256k1 points (33 bytes) on the wire.
type dhKeyPair struct {
	privateKey []byte
	publicKey  []byte
}

func generateDH() (*dhKeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("ratchet keygen: %w", builditcrypto.ErrRandomGenerationFailed)
	}
	kp := &dhKeyPair{
		privateKey: priv.Serialize(),
		publicKey:  priv.PubKey().SerializeCompressed(),
	}
	priv.Zero()
	return kp, nil
}

func dhFromPrivate(privateKey []byte) (*dhKeyPair, error) {
	if len(privateKey) != 32 {
		return nil, builditcrypto.ErrInvalidKey
	}
	priv := secp256k1.PrivKeyFromBytes(privateKey)
	if priv.Key.IsZero() {
		return nil, builditcrypto.ErrInvalidKey
	}
	kp := &dhKeyPair{
		privateKey: priv.Serialize(),
		publicKey:  priv.PubKey().SerializeCompressed(),
	}
	priv.Zero()
	return kp, nil
}

// dh computes the ECDH shared secret (x coordinate) with a peer public key.
func (kp *dhKeyPair) dh(peerPublicKey []byte) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(kp.privateKey)
	defer priv.Zero()
	pub, err := secp256k1.ParsePubKey(peerPublicKey)
	if err != nil {
		return nil, builditcrypto.ErrInvalidPublicKey
	}
	return secp256k1.GenerateSharedSecret(priv, pub), nil
}

func (kp *dhKeyPair) clone() *dhKeyPair {
	return &dhKeyPair{
		privateKey: bytes.Clone(kp.privateKey),
		publicKey:  bytes.Clone(kp.publicKey),
	}
}

func (kp *dhKeyPair) wipe() {
	primitives.SecureWipe(kp.privateKey)
}

// State is a Double Ratchet session. All key buffers are wiped by Wipe; the
// session package calls it when a session closes.
type State struct {
	dhSelf   *dhKeyPair
	dhRemote []byte // nil until the peer's ratchet key is known

	rootKey      []byte
	chainKeySend []byte // nil until the first sending chain exists
	chainKeyRecv []byte // nil until the first receiving chain exists

	messageNumberSend   uint32
	messageNumberRecv   uint32
	previousChainLength uint32

	skipped *skippedKeys
}

// InitAlice initializes the initiator's session from a 32-byte shared secret
// (from an external X3DH or equivalent) and the responder's long-lived DH
// public key.
func InitAlice(sharedSecret, bobPublicKey []byte) (*State, error) {
	if len(sharedSecret) != 32 {
		return nil, builditcrypto.ErrInvalidKey
	}

	dhSelf, err := generateDH()
	if err != nil {
		return nil, err
	}
	dhOut, err := dhSelf.dh(bobPublicKey)
	if err != nil {
		dhSelf.wipe()
		return nil, err
	}
	rootKey, chainKeySend, err := kdfRoot(sharedSecret, dhOut)
	primitives.SecureWipe(dhOut)
	if err != nil {
		dhSelf.wipe()
		return nil, err
	}

	return &State{
		dhSelf:       dhSelf,
		dhRemote:     bytes.Clone(bobPublicKey),
		rootKey:      rootKey,
		chainKeySend: chainKeySend,
		skipped:      newSkippedKeys(),
	}, nil
}

// InitBob initializes the responder's session from the same shared secret and
// the responder's own long-lived DH private key. The sending chain comes into
// existence on the first ratchet step, when the initiator's key arrives.
func InitBob(sharedSecret, bobPrivateKey []byte) (*State, error) {
	if len(sharedSecret) != 32 {
		return nil, builditcrypto.ErrInvalidKey
	}
	dhSelf, err := dhFromPrivate(bobPrivateKey)
	if err != nil {
		return nil, err
	}
	return &State{
		dhSelf:  dhSelf,
		rootKey: bytes.Clone(sharedSecret),
		skipped: newSkippedKeys(),
	}, nil
}

// PublicKey returns the session's current ratchet public key.
func (s *State) PublicKey() []byte {
	return bytes.Clone(s.dhSelf.publicKey)
}

// Encrypt advances the sending chain one step and encrypts plaintext with the
// resulting message key, authenticating the serialized header.
func (s *State) Encrypt(plaintext []byte) (*Message, error) {
	start := time.Now()
	msg, err := s.encrypt(plaintext)
	metrics.ObserveOperation("encrypt", "ratchet", start, err)
	if err == nil {
		metrics.SessionMessages.WithLabelValues("sent").Inc()
	}
	return msg, err
}

func (s *State) encrypt(plaintext []byte) (*Message, error) {
	if s.chainKeySend == nil {
		return nil, builditcrypto.ErrEncryptionFailed
	}

	messageKey, nextChainKey := kdfChain(s.chainKeySend)
	defer primitives.SecureWipe(messageKey)

	header := MessageHeader{
		DHPublicKey:         bytes.Clone(s.dhSelf.publicKey),
		PreviousChainLength: s.previousChainLength,
		MessageNumber:       s.messageNumberSend,
	}

	nonce, err := primitives.RandomBytes(12)
	if err != nil {
		primitives.SecureWipe(nextChainKey)
		return nil, err
	}
	ciphertext, err := primitives.ChaCha20Poly1305Seal(messageKey, nonce, plaintext, header.Bytes())
	if err != nil {
		primitives.SecureWipe(nextChainKey)
		return nil, err
	}

	primitives.SecureWipe(s.chainKeySend)
	s.chainKeySend = nextChainKey
	s.messageNumberSend++

	return &Message{Header: header, Ciphertext: ciphertext, Nonce: nonce}, nil
}

// Decrypt handles ratchet steps and out-of-order delivery transparently. It
// operates on a copy of the state and commits only on success, so a garbage
// message can never corrupt future decryption.
func (s *State) Decrypt(msg *Message) ([]byte, error) {
	start := time.Now()
	plaintext, err := s.decrypt(msg)
	metrics.ObserveOperation("decrypt", "ratchet", start, err)
	if err == nil {
		metrics.SessionMessages.WithLabelValues("received").Inc()
	}
	return plaintext, err
}

func (s *State) decrypt(msg *Message) ([]byte, error) {
	tmp := s.clone()

	// Out-of-order delivery: a previously skipped key decrypts directly.
	if messageKey, ok := tmp.skipped.take(msg.Header.DHPublicKey, msg.Header.MessageNumber); ok {
		plaintext, err := openMessage(messageKey, msg)
		primitives.SecureWipe(messageKey)
		if err != nil {
			tmp.wipeClone()
			return nil, err
		}
		s.commit(tmp)
		return plaintext, nil
	}

	// A new remote ratchet key first drains the previous receiving chain,
	// then steps the DH ratchet.
	if !bytes.Equal(tmp.dhRemote, msg.Header.DHPublicKey) {
		if err := tmp.skipMessageKeys(msg.Header.PreviousChainLength); err != nil {
			tmp.wipeClone()
			return nil, err
		}
		if err := tmp.dhRatchet(msg.Header.DHPublicKey); err != nil {
			tmp.wipeClone()
			return nil, err
		}
	}

	if err := tmp.skipMessageKeys(msg.Header.MessageNumber); err != nil {
		tmp.wipeClone()
		return nil, err
	}

	if tmp.chainKeyRecv == nil {
		tmp.wipeClone()
		return nil, builditcrypto.ErrDecryptionFailed
	}
	messageKey, nextChainKey := kdfChain(tmp.chainKeyRecv)
	primitives.SecureWipe(tmp.chainKeyRecv)
	tmp.chainKeyRecv = nextChainKey
	tmp.messageNumberRecv++

	plaintext, err := openMessage(messageKey, msg)
	primitives.SecureWipe(messageKey)
	if err != nil {
		tmp.wipeClone()
		return nil, err
	}

	s.commit(tmp)
	return plaintext, nil
}

// dhRatchet steps the ratchet for a new remote public key: derive the
// receiving chain with the current pair, then rotate to a fresh pair and
// derive the sending chain.
func (s *State) dhRatchet(remotePublicKey []byte) error {
	s.previousChainLength = s.messageNumberSend
	s.messageNumberSend = 0
	s.messageNumberRecv = 0
	primitives.SecureWipe(s.dhRemote)
	s.dhRemote = bytes.Clone(remotePublicKey)

	dhRecv, err := s.dhSelf.dh(s.dhRemote)
	if err != nil {
		return err
	}
	rootKey, chainKeyRecv, err := kdfRoot(s.rootKey, dhRecv)
	primitives.SecureWipe(dhRecv)
	if err != nil {
		return err
	}
	primitives.SecureWipe(s.rootKey)
	primitives.SecureWipe(s.chainKeyRecv)
	s.rootKey = rootKey
	s.chainKeyRecv = chainKeyRecv

	next, err := generateDH()
	if err != nil {
		return err
	}
	s.dhSelf.wipe()
	s.dhSelf = next

	dhSend, err := s.dhSelf.dh(s.dhRemote)
	if err != nil {
		return err
	}
	rootKey, chainKeySend, err := kdfRoot(s.rootKey, dhSend)
	primitives.SecureWipe(dhSend)
	if err != nil {
		return err
	}
	primitives.SecureWipe(s.rootKey)
	primitives.SecureWipe(s.chainKeySend)
	s.rootKey = rootKey
	s.chainKeySend = chainKeySend
	return nil
}

// skipMessageKeys winds the receiving chain forward to until, caching each
// intermediate message key for out-of-order delivery. A header demanding
// more than MaxSkip keys is rejected outright.
func (s *State) skipMessageKeys(until uint32) error {
	if s.messageNumberRecv+MaxSkip < until {
		return builditcrypto.ErrDecryptionFailed
	}
	if s.chainKeyRecv == nil || s.dhRemote == nil {
		return nil
	}

	for s.messageNumberRecv < until {
		messageKey, nextChainKey := kdfChain(s.chainKeyRecv)
		s.skipped.put(s.dhRemote, s.messageNumberRecv, messageKey)
		metrics.SkippedKeysStored.Inc()
		primitives.SecureWipe(s.chainKeyRecv)
		s.chainKeyRecv = nextChainKey
		s.messageNumberRecv++
	}
	return nil
}

// commit replaces s with the successfully advanced copy, wiping the old key
// material.
func (s *State) commit(tmp *State) {
	s.dhSelf.wipe()
	primitives.SecureWipe(s.dhRemote)
	primitives.SecureWipe(s.rootKey)
	primitives.SecureWipe(s.chainKeySend)
	primitives.SecureWipe(s.chainKeyRecv)
	s.skipped.wipe()
	*s = *tmp
}

func (s *State) clone() *State {
	return &State{
		dhSelf:              s.dhSelf.clone(),
		dhRemote:            bytes.Clone(s.dhRemote),
		rootKey:             bytes.Clone(s.rootKey),
		chainKeySend:        bytes.Clone(s.chainKeySend),
		chainKeyRecv:        bytes.Clone(s.chainKeyRecv),
		messageNumberSend:   s.messageNumberSend,
		messageNumberRecv:   s.messageNumberRecv,
		previousChainLength: s.previousChainLength,
		skipped:             s.skipped.clone(),
	}
}

// wipeClone destroys a working copy whose advance failed.
func (s *State) wipeClone() {
	s.Wipe()
}

// Wipe erases every key buffer held by the state.
func (s *State) Wipe() {
	if s.dhSelf != nil {
		s.dhSelf.wipe()
	}
	primitives.SecureWipe(s.dhRemote)
	primitives.SecureWipe(s.rootKey)
	primitives.SecureWipe(s.chainKeySend)
	primitives.SecureWipe(s.chainKeyRecv)
	s.skipped.wipe()
}

func openMessage(messageKey []byte, msg *Message) ([]byte, error) {
	if len(msg.Nonce) != 12 {
		return nil, builditcrypto.ErrDecryptionFailed
	}
	return primitives.ChaCha20Poly1305Open(messageKey, msg.Nonce, msg.Ciphertext, msg.Header.Bytes())
}

// kdfRoot derives (new root key, chain key) from the current root key and a
// DH output: HKDF(salt=root, ikm=dh, info="BuildIt-Ratchet-RootKey", L=64).
func kdfRoot(rootKey, dhOutput []byte) ([]byte, []byte, error) {
	out, err := primitives.HKDFSHA256(rootKey, dhOutput, kdfRootInfo, 64)
	if err != nil {
		return nil, nil, err
	}
	return out[:32:32], out[32:], nil
}

// kdfChain derives (message key, next chain key) from a chain key with the
// HMAC constants 0x01 and 0x02.
func kdfChain(chainKey []byte) ([]byte, []byte) {
	messageKey := primitives.HMACSHA256(chainKey, []byte{0x01})
	nextChainKey := primitives.HMACSHA256(chainKey, []byte{0x02})
	return messageKey, nextChainKey
}

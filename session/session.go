// Package session exposes the core's only stateful object: a Double Ratchet
// session guarded by a mutex so host threads on the FFI boundary may call it
// freely. Everything else in the core is pure; callers bring their own
// concurrency.
package session

import (
	"sync"

	"github.com/buildit-network/buildit/ratchet"
)

// Session is a thread-safe Double Ratchet session. Every public method takes
// the mutex for its duration; the mutex is never held across callbacks.
type Session struct {
	mu    sync.Mutex
	state *ratchet.State
}

// InitAlice creates the initiator's session from a 32-byte shared secret and
// the responder's long-lived DH public key.
func InitAlice(sharedSecret, peerPublicKey []byte) (*Session, error) {
	state, err := ratchet.InitAlice(sharedSecret, peerPublicKey)
	if err != nil {
		return nil, err
	}
	return &Session{state: state}, nil
}

// InitBob creates the responder's session from the shared secret and the
// responder's own long-lived DH private key.
func InitBob(sharedSecret, ownPrivateKey []byte) (*Session, error) {
	state, err := ratchet.InitBob(sharedSecret, ownPrivateKey)
	if err != nil {
		return nil, err
	}
	return &Session{state: state}, nil
}

// Encrypt produces the next message in the sending chain.
func (s *Session) Encrypt(plaintext []byte) (*ratchet.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Encrypt(plaintext)
}

// Decrypt opens a message, handling ratchet steps and out-of-order delivery.
// State is untouched when decryption fails.
func (s *Session) Decrypt(msg *ratchet.Message) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Decrypt(msg)
}

// GetPublicKey returns the session's current ratchet public key.
func (s *Session) GetPublicKey() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PublicKey()
}

// Serialize renders the session state as a sensitive JSON blob. Encrypt it
// (primitives.AESEncrypt with the database key) before persisting.
func (s *Session) Serialize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Serialize()
}

// Deserialize restores a session from a blob produced by Serialize.
func Deserialize(data []byte) (*Session, error) {
	state, err := ratchet.Deserialize(data)
	if err != nil {
		return nil, err
	}
	return &Session{state: state}, nil
}

// Close wipes all key material held by the session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Wipe()
	return nil
}

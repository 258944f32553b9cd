package ratchet

import (
	"bytes"
	"fmt"

	"github.com/buildit-network/buildit/crypto/primitives"
)

// skippedKeys caches message keys derived for messages that have not arrived
// yet, keyed by (remote ratchet public key, message number). Insertion order
// is tracked so the oldest entry can be evicted once the cache would exceed
// MaxSkip.
type skippedKeys struct {
	keys  map[string][]byte
	order []string
}

func newSkippedKeys() *skippedKeys {
	return &skippedKeys{keys: make(map[string][]byte)}
}

func skipKey(publicKey []byte, messageNumber uint32) string {
	return fmt.Sprintf("%x:%d", publicKey, messageNumber)
}

// put stores a message key, evicting the oldest entry at capacity.
func (sk *skippedKeys) put(publicKey []byte, messageNumber uint32, messageKey []byte) {
	if len(sk.keys) >= MaxSkip {
		oldest := sk.order[0]
		sk.order = sk.order[1:]
		primitives.SecureWipe(sk.keys[oldest])
		delete(sk.keys, oldest)
	}
	k := skipKey(publicKey, messageNumber)
	sk.keys[k] = messageKey
	sk.order = append(sk.order, k)
}

// take removes and returns the key for (publicKey, messageNumber), if cached.
func (sk *skippedKeys) take(publicKey []byte, messageNumber uint32) ([]byte, bool) {
	k := skipKey(publicKey, messageNumber)
	messageKey, ok := sk.keys[k]
	if !ok {
		return nil, false
	}
	delete(sk.keys, k)
	for i, o := range sk.order {
		if o == k {
			sk.order = append(sk.order[:i], sk.order[i+1:]...)
			break
		}
	}
	return messageKey, true
}

func (sk *skippedKeys) clone() *skippedKeys {
	c := &skippedKeys{
		keys:  make(map[string][]byte, len(sk.keys)),
		order: append([]string(nil), sk.order...),
	}
	for k, v := range sk.keys {
		c.keys[k] = bytes.Clone(v)
	}
	return c
}

func (sk *skippedKeys) wipe() {
	if sk == nil {
		return
	}
	for _, v := range sk.keys {
		primitives.SecureWipe(v)
	}
	sk.keys = make(map[string][]byte)
	sk.order = nil
}

// Package nostr implements the signed event model: canonical serialization,
// id computation (SHA-256 over the canonical form), BIP-340 signing and
// verification.
package nostr

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/keys"
)

// UnsignedEvent is an event before id computation and signing.
type UnsignedEvent struct {
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
}

// Event is a signed event. A rumor carries an empty Sig.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Unsigned strips the id and signature.
func (e *Event) Unsigned() UnsignedEvent {
	return UnsignedEvent{
		PubKey:    e.PubKey,
		CreatedAt: e.CreatedAt,
		Kind:      e.Kind,
		Tags:      e.Tags,
		Content:   e.Content,
	}
}

// ComputeEventID serializes the event canonically and returns the lowercase
// hex SHA-256 of the result.
func ComputeEventID(event UnsignedEvent) (string, error) {
	sum := sha256.Sum256(canonicalSerialize(&event))
	return hex.EncodeToString(sum[:]), nil
}

// canonicalSerialize produces the exact byte form the id is computed over:
// [0,"<pubkey>",<created_at>,<kind>,<tags>,<content>] with relay-ecosystem
// string escaping (control characters escaped, no whitespace, no HTML
// escaping).
func canonicalSerialize(event *UnsignedEvent) []byte {
	buf := make([]byte, 0, 128+len(event.Content))
	buf = append(buf, `[0,"`...)
	buf = append(buf, event.PubKey...)
	buf = append(buf, '"')
	buf = append(buf, ',')
	buf = appendInt(buf, event.CreatedAt)
	buf = append(buf, ',')
	buf = appendInt(buf, int64(event.Kind))
	buf = append(buf, ',')
	buf = append(buf, '[')
	for i, tag := range event.Tags {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		for j, item := range tag {
			if j > 0 {
				buf = append(buf, ',')
			}
			buf = appendEscapedString(buf, item)
		}
		buf = append(buf, ']')
	}
	buf = append(buf, ']')
	buf = append(buf, ',')
	buf = appendEscapedString(buf, event.Content)
	buf = append(buf, ']')
	return buf
}

func appendInt(buf []byte, v int64) []byte {
	return fmt.Appendf(buf, "%d", v)
}

// appendEscapedString writes a JSON string the way the relay ecosystem does:
// only quote, backslash and control characters are escaped, never HTML.
func appendEscapedString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			buf = append(buf, '\\', '"')
		case c == '\\':
			buf = append(buf, '\\', '\\')
		case c == '\b':
			buf = append(buf, '\\', 'b')
		case c == '\t':
			buf = append(buf, '\\', 't')
		case c == '\n':
			buf = append(buf, '\\', 'n')
		case c == '\f':
			buf = append(buf, '\\', 'f')
		case c == '\r':
			buf = append(buf, '\\', 'r')
		case c < 0x20:
			buf = fmt.Appendf(buf, `\u%04x`, c)
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}

// SignEvent computes the event id and signs the raw 32 id bytes with BIP-340
// Schnorr. The id is already a SHA-256 digest, so it is signed without
// re-hashing.
func SignEvent(privateKey []byte, event UnsignedEvent) (*Event, error) {
	id, err := ComputeEventID(event)
	if err != nil {
		return nil, err
	}
	idBytes, err := hex.DecodeString(id)
	if err != nil {
		return nil, builditcrypto.ErrInvalidHex
	}

	sig, err := keys.SchnorrSignDigest(idBytes, privateKey)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        id,
		PubKey:    event.PubKey,
		CreatedAt: event.CreatedAt,
		Kind:      event.Kind,
		Tags:      event.Tags,
		Content:   event.Content,
		Sig:       hex.EncodeToString(sig),
	}, nil
}

// VerifyEvent recomputes the id from the event fields and checks the BIP-340
// signature over it. Any malformed field verifies as false.
func VerifyEvent(event *Event) bool {
	expectedID, err := ComputeEventID(event.Unsigned())
	if err != nil || event.ID != expectedID {
		return false
	}

	pubkeyBytes, err := hex.DecodeString(event.PubKey)
	if err != nil {
		return false
	}
	sigBytes, err := hex.DecodeString(event.Sig)
	if err != nil {
		return false
	}
	idBytes, err := hex.DecodeString(event.ID)
	if err != nil {
		return false
	}

	ok, err := keys.SchnorrVerifyDigest(idBytes, sigBytes, pubkeyBytes)
	return err == nil && ok
}

// SerializeEvent renders the full event as JSON for transport inside an
// encrypted layer. Field order is not significant; the canonical form is
// only used for ids.
func SerializeEvent(event *Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", builditcrypto.ErrInvalidJSON
	}
	return string(data), nil
}

// DeserializeEvent parses an event from JSON, rejecting payloads that smuggle
// prototype-pollution keys toward loosely-typed parsers on the boundary.
func DeserializeEvent(data string) (*Event, error) {
	if strings.Contains(data, "__proto__") ||
		strings.Contains(data, "constructor") ||
		strings.Contains(data, "prototype") {
		return nil, builditcrypto.ErrInvalidJSON
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, builditcrypto.ErrInvalidJSON
	}
	return &event, nil
}

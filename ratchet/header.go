package ratchet

import (
	"encoding/binary"

	builditcrypto "github.com/buildit-network/buildit/crypto"
)

// MessageHeader travels with every encrypted message and is authenticated as
// associated data.
type MessageHeader struct {
	// DHPublicKey is the sender's current ratchet public key (compressed
	// secp256k1, 33 bytes).
	DHPublicKey []byte `json:"dh_public_key"`
	// PreviousChainLength is the number of messages in the sender's previous
	// sending chain, used to detect and drain a ratchet step.
	PreviousChainLength uint32 `json:"previous_chain_length"`
	// MessageNumber is the position in the current chain.
	MessageNumber uint32 `json:"message_number"`
}

// Bytes serializes the header as len(1) ‖ pubkey ‖ prev_chain(4 BE) ‖
// msg_num(4 BE). This exact byte form is the AEAD associated data.
func (h *MessageHeader) Bytes() []byte {
	buf := make([]byte, 0, 1+len(h.DHPublicKey)+8)
	buf = append(buf, byte(len(h.DHPublicKey)))
	buf = append(buf, h.DHPublicKey...)
	buf = binary.BigEndian.AppendUint32(buf, h.PreviousChainLength)
	buf = binary.BigEndian.AppendUint32(buf, h.MessageNumber)
	return buf
}

// ParseHeader decodes a header serialized by Bytes.
func ParseHeader(data []byte) (*MessageHeader, error) {
	if len(data) < 9 {
		return nil, builditcrypto.ErrInvalidCiphertext
	}
	pkLen := int(data[0])
	if len(data) < 1+pkLen+8 {
		return nil, builditcrypto.ErrInvalidCiphertext
	}
	pub := make([]byte, pkLen)
	copy(pub, data[1:1+pkLen])
	return &MessageHeader{
		DHPublicKey:         pub,
		PreviousChainLength: binary.BigEndian.Uint32(data[1+pkLen : 1+pkLen+4]),
		MessageNumber:       binary.BigEndian.Uint32(data[1+pkLen+4 : 1+pkLen+8]),
	}, nil
}

// Message is one Double Ratchet ciphertext with its header and nonce.
type Message struct {
	Header     MessageHeader `json:"header"`
	Ciphertext []byte        `json:"ciphertext"`
	Nonce      []byte        `json:"nonce"`
}

package ratchet

import (
	"encoding/json"

	builditcrypto "github.com/buildit-network/buildit/crypto"
)

// stateJSON is the storage form of a session. Byte fields render as base64
// per encoding/json; optional fields (remote key, chain keys) are omitted
// while unset.
type stateJSON struct {
	DHSelfPrivate       []byte            `json:"dh_self_private"`
	DHSelfPublic        []byte            `json:"dh_self_public"`
	DHRemote            []byte            `json:"dh_remote,omitempty"`
	RootKey             []byte            `json:"root_key"`
	ChainKeySend        []byte            `json:"chain_key_send,omitempty"`
	ChainKeyRecv        []byte            `json:"chain_key_recv,omitempty"`
	MessageNumberSend   uint32            `json:"message_number_send"`
	MessageNumberRecv   uint32            `json:"message_number_recv"`
	PreviousChainLength uint32            `json:"previous_chain_length"`
	SkippedKeys         map[string][]byte `json:"skipped_message_keys"`
	SkippedOrder        []string          `json:"skipped_message_order"`
}

// Serialize renders the full session state as a JSON blob. The blob contains
// every live key of the session and must be encrypted (primitives.AESEncrypt
// with the database key) before it touches any storage.
func (s *State) Serialize() ([]byte, error) {
	out := stateJSON{
		DHSelfPrivate:       s.dhSelf.privateKey,
		DHSelfPublic:        s.dhSelf.publicKey,
		DHRemote:            s.dhRemote,
		RootKey:             s.rootKey,
		ChainKeySend:        s.chainKeySend,
		ChainKeyRecv:        s.chainKeyRecv,
		MessageNumberSend:   s.messageNumberSend,
		MessageNumberRecv:   s.messageNumberRecv,
		PreviousChainLength: s.previousChainLength,
		SkippedKeys:         s.skipped.keys,
		SkippedOrder:        s.skipped.order,
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, builditcrypto.ErrInvalidJSON
	}
	return data, nil
}

// Deserialize restores a session from a blob produced by Serialize.
func Deserialize(data []byte) (*State, error) {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, builditcrypto.ErrInvalidJSON
	}
	if len(in.DHSelfPrivate) != 32 || len(in.RootKey) != 32 {
		return nil, builditcrypto.ErrInvalidKey
	}

	skipped := newSkippedKeys()
	if in.SkippedKeys != nil {
		skipped.keys = in.SkippedKeys
	}
	skipped.order = in.SkippedOrder

	// The public half is rederived rather than trusted from storage.
	dhSelf, err := dhFromPrivate(in.DHSelfPrivate)
	if err != nil {
		return nil, err
	}

	return &State{
		dhSelf:              dhSelf,
		dhRemote:            in.DHRemote,
		rootKey:             in.RootKey,
		chainKeySend:        in.ChainKeySend,
		chainKeyRecv:        in.ChainKeyRecv,
		messageNumberSend:   in.MessageNumberSend,
		messageNumberRecv:   in.MessageNumberRecv,
		previousChainLength: in.PreviousChainLength,
		skipped:             skipped,
	}, nil
}

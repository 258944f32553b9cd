package threshold

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/keys"
)

// PartialSignature is one share holder's BIP-340 signature. It verifies
// against the holder's share public key only; see the package comment for the
// aggregation limitation.
type PartialSignature struct {
	SignerIndex     uint32 `json:"signer_index"`
	Signature       []byte `json:"signature"`
	SignerPublicKey string `json:"signer_public_key"`
}

// RotationProposal carries a freshly generated replacement group, signed by
// the proposing share holder.
type RotationProposal struct {
	ProposalID        string     `json:"proposal_id"`
	GroupID           string     `json:"group_id"`
	NewGroupPublicKey string     `json:"new_group_public_key"`
	NewShares         []KeyShare `json:"new_shares"`
	CreatedAt         int64      `json:"created_at"`
	ProposerSignature []byte     `json:"proposer_signature"`
}

// SignWithShare produces a share holder's partial signature over message.
func SignWithShare(share KeyShare, message []byte) (*PartialSignature, error) {
	signature, err := keys.SchnorrSign(message, share.ShareSecret)
	if err != nil {
		return nil, err
	}
	return &PartialSignature{
		SignerIndex:     share.Index,
		Signature:       signature,
		SignerPublicKey: share.SharePublicKey,
	}, nil
}

// VerifyPartialSignature checks a partial signature against the signer's
// share public key.
func VerifyPartialSignature(partial *PartialSignature, message []byte) (bool, error) {
	publicKeyBytes, err := hex.DecodeString(partial.SignerPublicKey)
	if err != nil {
		return false, builditcrypto.ErrInvalidPublicKey
	}
	return keys.SchnorrVerify(message, partial.Signature, publicKeyBytes)
}

// rotationMessage is the exact string a proposer signs.
func rotationMessage(groupID, newGroupPublicKey string, createdAt int64) []byte {
	return []byte(fmt.Sprintf("rotate:%s:%s:%d", groupID, newGroupPublicKey, createdAt))
}

// CreateRotationProposal generates a replacement group (fresh secret, fresh
// shares) for the given parameters and signs the proposal with the
// proposer's existing share.
func CreateRotationProposal(groupID string, proposerShare KeyShare, threshold, totalShares uint32, createdAt int64) (*RotationProposal, error) {
	newGroup, err := Generate(Config{Threshold: threshold, TotalShares: totalShares})
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	h.Write([]byte(groupID))
	h.Write([]byte(newGroup.GroupPublicKey))
	h.Write(binary.BigEndian.AppendUint64(nil, uint64(createdAt)))
	proposalID := hex.EncodeToString(h.Sum(nil))[:32]

	signature, err := keys.SchnorrSign(rotationMessage(groupID, newGroup.GroupPublicKey, createdAt), proposerShare.ShareSecret)
	if err != nil {
		return nil, err
	}

	return &RotationProposal{
		ProposalID:        proposalID,
		GroupID:           groupID,
		NewGroupPublicKey: newGroup.GroupPublicKey,
		NewShares:         newGroup.Shares,
		CreatedAt:         createdAt,
		ProposerSignature: signature,
	}, nil
}

// VerifyRotationProposal checks the proposer's signature against their share
// public key.
func VerifyRotationProposal(proposal *RotationProposal, proposerPublicKey string) (bool, error) {
	publicKeyBytes, err := hex.DecodeString(proposerPublicKey)
	if err != nil {
		return false, builditcrypto.ErrInvalidPublicKey
	}
	return keys.SchnorrVerify(
		rotationMessage(proposal.GroupID, proposal.NewGroupPublicKey, proposal.CreatedAt),
		proposal.ProposerSignature,
		publicKeyBytes,
	)
}

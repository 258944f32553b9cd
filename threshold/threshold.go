// Package threshold implements M-of-N key sharing with Shamir's Secret
// Sharing over the secp256k1 scalar field, plus share-holder signatures and
// key-rotation proposals.
//
// A share signature is a BIP-340 signature under one share's key: it proves a
// holder authorized something, and is verified against that share's public
// key. It is NOT an aggregate threshold signature over the group key — true
// threshold Schnorr needs FROST or equivalent, which this package does not
// implement.
package threshold

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/crypto/keys"
	"github.com/buildit-network/buildit/crypto/primitives"
	"github.com/buildit-network/buildit/internal/metrics"
)

// MaxShares is the practical limit for share management.
const MaxShares = 255

// KeyShare is one participant's share. Index is 1-based; the index-0 slot is
// the secret itself and is never emitted.
type KeyShare struct {
	Index          uint32 `json:"index"`
	ShareSecret    []byte `json:"share_secret"`
	SharePublicKey string `json:"share_public_key"`
	GroupID        string `json:"group_id"`
	TotalShares    uint32 `json:"total_shares"`
	Threshold      uint32 `json:"threshold"`
}

// Destroy wipes the share secret in place.
func (s *KeyShare) Destroy() {
	primitives.SecureWipe(s.ShareSecret)
}

// Config describes a threshold key group to generate.
type Config struct {
	// Threshold is the number of shares needed to reconstruct (M).
	Threshold uint32
	// TotalShares is the number of shares to generate (N).
	TotalShares uint32
	// GroupName is a human-readable label for the caller's own use. Generate
	// does not read it, and the returned Group does not record it.
	GroupName string
}

// Group is the result of threshold key generation. The group secret itself
// is wiped before Generate returns; only the shares leave the function.
type Group struct {
	GroupID        string     `json:"group_id"`
	GroupPublicKey string     `json:"group_public_key"`
	Shares         []KeyShare `json:"shares"`
	Threshold      uint32     `json:"threshold"`
	TotalShares    uint32     `json:"total_shares"`
}

// Generate creates a fresh group secret and splits it into N shares with
// reconstruction threshold M, evaluating a random degree-(M-1) polynomial at
// the points 1..N in the scalar field.
func Generate(config Config) (*Group, error) {
	start := time.Now()
	group, err := generate(config)
	metrics.ObserveOperation("generate", "threshold", start, err)
	return group, err
}

func generate(config Config) (*Group, error) {
	threshold, totalShares := config.Threshold, config.TotalShares
	if threshold < 2 || totalShares < threshold || totalShares > MaxShares {
		return nil, builditcrypto.ErrInvalidKey
	}

	groupKeyPair, err := keys.Generate()
	if err != nil {
		return nil, err
	}
	defer groupKeyPair.Destroy()

	groupID, err := newGroupID(groupKeyPair.PublicKey)
	if err != nil {
		return nil, err
	}

	// f(x) = secret + a1*x + ... + a_{t-1}*x^{t-1}; coefficient zero is the
	// secret itself.
	coefficients := make([]secp256k1.ModNScalar, threshold)
	defer func() {
		for i := range coefficients {
			coefficients[i].Zero()
		}
	}()
	if overflow := coefficients[0].SetByteSlice(groupKeyPair.PrivateKey); overflow {
		return nil, builditcrypto.ErrInvalidKey
	}
	for i := uint32(1); i < threshold; i++ {
		coeff, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, builditcrypto.ErrRandomGenerationFailed
		}
		coefficients[i].Set(&coeff.Key)
		coeff.Zero()
	}

	shares := make([]KeyShare, 0, totalShares)
	for i := uint32(1); i <= totalShares; i++ {
		shareSecret := evaluatePolynomial(coefficients, i)
		sharePublicKey, err := keys.PublicFromPrivate(shareSecret)
		if err != nil {
			primitives.SecureWipe(shareSecret)
			return nil, err
		}
		shares = append(shares, KeyShare{
			Index:          i,
			ShareSecret:    shareSecret,
			SharePublicKey: sharePublicKey,
			GroupID:        groupID,
			TotalShares:    totalShares,
			Threshold:      threshold,
		})
	}

	return &Group{
		GroupID:        groupID,
		GroupPublicKey: groupKeyPair.PublicKey,
		Shares:         shares,
		Threshold:      threshold,
		TotalShares:    totalShares,
	}, nil
}

// newGroupID hashes the group public key with a random nonce and keeps the
// first 32 hex characters.
func newGroupID(groupPublicKey string) (string, error) {
	nonce, err := primitives.RandomBytes(16)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(groupPublicKey))
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil))[:32], nil
}

// evaluatePolynomial computes f(x) by Horner's method in the scalar field.
func evaluatePolynomial(coefficients []secp256k1.ModNScalar, x uint32) []byte {
	var xScalar secp256k1.ModNScalar
	xScalar.SetInt(x)

	var result secp256k1.ModNScalar
	result.Set(&coefficients[len(coefficients)-1])
	for i := len(coefficients) - 2; i >= 0; i-- {
		result.Mul(&xScalar)
		result.Add(&coefficients[i])
	}

	out := result.Bytes()
	result.Zero()
	return out[:]
}

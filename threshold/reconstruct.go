package threshold

import (
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/internal/metrics"
)

// Reconstruct recovers the 32-byte group secret from at least Threshold
// shares of the same group via Lagrange interpolation at x=0. The caller owns
// the returned scalar and must wipe it (and the shares) after use.
func Reconstruct(shares []KeyShare) ([]byte, error) {
	start := time.Now()
	secret, err := reconstruct(shares)
	metrics.ObserveOperation("reconstruct", "threshold", start, err)
	return secret, err
}

func reconstruct(shares []KeyShare) ([]byte, error) {
	if len(shares) == 0 {
		return nil, builditcrypto.ErrInvalidKey
	}
	threshold := shares[0].Threshold
	if uint32(len(shares)) < threshold {
		return nil, builditcrypto.ErrInvalidKey
	}

	// Only the first threshold shares participate.
	active := shares[:threshold]

	groupID := active[0].GroupID
	seen := make(map[uint32]struct{}, len(active))
	for _, share := range active {
		if share.GroupID != groupID {
			return nil, builditcrypto.ErrInvalidKey
		}
		if share.Index == 0 {
			return nil, builditcrypto.ErrInvalidKey
		}
		if _, dup := seen[share.Index]; dup {
			return nil, builditcrypto.ErrInvalidKey
		}
		seen[share.Index] = struct{}{}
	}

	// secret = sum_i( y_i * L_i(0) ), with
	// L_i(0) = prod_{j!=i}( -x_j / (x_i - x_j) ).
	var sum secp256k1.ModNScalar
	for i := range active {
		coeff, err := lagrangeCoefficient(i, active)
		if err != nil {
			return nil, err
		}

		var y secp256k1.ModNScalar
		if overflow := y.SetByteSlice(active[i].ShareSecret); overflow {
			coeff.Zero()
			return nil, builditcrypto.ErrInvalidKey
		}
		y.Mul(coeff)
		sum.Add(&y)
		y.Zero()
		coeff.Zero()
	}

	if sum.IsZero() {
		return nil, builditcrypto.ErrInvalidKey
	}
	out := sum.Bytes()
	sum.Zero()
	return out[:], nil
}

// lagrangeCoefficient computes L_i(0) over the active share set. The field
// inversion is InverseNonConst: indices are public values, so variable-time
// inversion leaks nothing secret.
func lagrangeCoefficient(i int, shares []KeyShare) (*secp256k1.ModNScalar, error) {
	var numerator, denominator secp256k1.ModNScalar
	numerator.SetInt(1)
	denominator.SetInt(1)

	var xi secp256k1.ModNScalar
	xi.SetInt(shares[i].Index)

	for j := range shares {
		if i == j {
			continue
		}
		var xj secp256k1.ModNScalar
		xj.SetInt(shares[j].Index)

		// numerator *= -x_j
		negXj := xj
		negXj.Negate()
		numerator.Mul(&negXj)

		// denominator *= (x_i - x_j)
		diff := xi
		diff.Add(&negXj)
		if diff.IsZero() {
			return nil, builditcrypto.ErrInvalidKey
		}
		denominator.Mul(&diff)
	}

	denominator.InverseNonConst()
	numerator.Mul(&denominator)
	return &numerator, nil
}

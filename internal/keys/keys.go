// Package keys implements the ZIP-32-style key hierarchy of spec.md §4.1:
// SpendingKey -> FullViewingKey -> {IncomingViewingKey, OutgoingViewingKey}
// x {External, Internal} -> Address. Grounded on the teacher's
// domain-separated sub-key derivation in internal/zkp/nullifier.go's
// NullifierDerivationKey, generalized into a full ladder.
package keys

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/ccoin/core/internal/primitives"
)

// ErrInvalidSeed is returned when hardened derivation from a seed lands
// outside the valid subgroup; callers may retry with a different account
// index (spec.md §4.1).
var ErrInvalidSeed = errors.New("keys: derived material outside valid subgroup")

// SpendingKey is the root secret: the only material needed to sign and
// spend a note.
type SpendingKey struct {
	bytes [32]byte
}

// Bytes returns the raw 32-byte spending key.
func (sk SpendingKey) Bytes() [32]byte { return sk.bytes }

// FromSeed performs ZIP-32-style hardened derivation of a spending key
// from a wallet seed, coin type, and account index.
func FromSeed(seed []byte, coinType, account uint32) (SpendingKey, error) {
	idx := make([]byte, 8)
	idx[0], idx[1], idx[2], idx[3] = byte(coinType), byte(coinType>>8), byte(coinType>>16), byte(coinType>>24)
	idx[4], idx[5], idx[6], idx[7] = byte(account), byte(account>>8), byte(account>>16), byte(account>>24)

	h := primitives.DomainHash("OrchardZ-SpendingKey", seed, idx)

	var sk SpendingKey
	copy(sk.bytes[:], h[:])

	// A spending key is invalid iff its derived spend-authorizing scalar
	// reduces to zero modulo the scalar field — vanishingly rare, but the
	// contract is that callers vary the account index and retry.
	ask := spendAuthorizingScalar(sk)
	if ask.Sign() == 0 {
		return SpendingKey{}, ErrInvalidSeed
	}
	return sk, nil
}

// spendAuthorizingScalar derives ask, the spend-authorizing scalar, from
// the spending key.
func spendAuthorizingScalar(sk SpendingKey) *big.Int {
	h := primitives.DomainHash("OrchardZ-ASK", sk.bytes[:])
	return new(big.Int).SetBytes(h[:])
}

// nullifierDerivingKeyBytes derives nk, the nullifier deriving key.
func nullifierDerivingKeyBytes(sk SpendingKey) [32]byte {
	h := primitives.DomainHash("OrchardZ-NK", sk.bytes[:])
	return h
}

// commitIvkRandomnessBytes derives rivk, the randomness blending ak and nk
// into the incoming viewing key.
func commitIvkRandomnessBytes(sk SpendingKey) [32]byte {
	h := primitives.DomainHash("OrchardZ-RIVK", sk.bytes[:])
	return h
}

// spendValidatingKey derives ak = [ask]*SpendAuthG.
func spendValidatingKey(sk SpendingKey) bn254.G1Affine {
	return primitives.ScalarBaseMult(spendAuthorizingScalar(sk))
}

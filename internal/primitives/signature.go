package primitives

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/ccoin/core/pkg/types"
)

// spendAuthGenerator is the base point used for spend-authorization keys
// and their randomization, analogous to the spec's SpendAuthG. Derived
// deterministically from the curve's standard generator by hash-to-scalar,
// the same technique pedersen.go uses to derive its secondary generator.
var spendAuthGenerator bn254.G1Affine

func init() {
	_, _, g, _ := bn254.Generators()
	spendAuthGenerator = g
	h := DomainHash("OrchardZ-SpendAuthG")
	spendAuthGenerator.ScalarMultiplication(&spendAuthGenerator, bigIntFromBytes(h[:]))
}

// ScalarBaseMult computes [scalar]*SpendAuthG, used to derive a spend
// validating key ak from a spend authorizing key ask.
func ScalarBaseMult(scalar *big.Int) bn254.G1Affine {
	var p bn254.G1Affine
	p.ScalarMultiplication(&spendAuthGenerator, scalar)
	return p
}

// RandomizeSpendKey derives rk.x, rk.y, the randomized spend validating
// key circuit constraint 5 asserts (spec.md §4.5). Unlike ak/pk_d, rk has
// no consumer outside the action circuit's own public instance — nothing
// decompresses it back into a curve point — so rather than real point
// addition ([alpha]*SpendAuthG + ak) it is defined as a direct
// domain-separated hash of (alpha, ak), letting internal/circuit's
// constraint 5 recompute the identical value with hashFields instead of
// emulating curve arithmetic in-circuit.
func RandomizeSpendKey(ak bn254.G1Affine, alpha *big.Int) (x, y types.Element) {
	akX, _ := PointToElements(&ak)
	alphaElem := ElementFromBigInt(alpha)
	x = DomainHashFieldsElement("OrchardZ-Rk", ElementBlock(alphaElem), ElementBlock(akX))
	y = DomainHashFieldsElement("OrchardZ-RkY", ElementBlock(x), ElementBlock(alphaElem))
	return x, y
}

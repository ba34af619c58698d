// Package primitives implements the field, curve, hash, AEAD, and key
// derivation primitives the rest of the library builds on. The underlying
// elliptic curve and hash primitives are standardized per spec.md §1 — this
// package substitutes the teacher's BN254/gnark-crypto stack for the
// spec's Pasta curve pair and Sinsemilla/Poseidon hashes (see DESIGN.md,
// Open Questions, for the substitution rationale).
package primitives

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/ccoin/core/pkg/types"
)

// ElementFromBigInt packs a big.Int into the four-limb little-endian wire
// representation spec.md §6 mandates for base-field elements.
func ElementFromBigInt(v *big.Int) types.Element {
	var e types.Element
	bz := make([]byte, 32)
	v.FillBytes(bz) // big-endian, 32 bytes

	for limb := 0; limb < 4; limb++ {
		var word uint64
		// limb 0 holds the least-significant 8 bytes, i.e. bz[24:32].
		start := 32 - (limb+1)*8
		for i := 0; i < 8; i++ {
			word = (word << 8) | uint64(bz[start+i])
		}
		e[limb] = word
	}
	return e
}

// BigIntFromElement reverses ElementFromBigInt.
func BigIntFromElement(e types.Element) *big.Int {
	bz := make([]byte, 32)
	for limb := 0; limb < 4; limb++ {
		word := e[limb]
		start := 32 - (limb+1)*8
		for i := 7; i >= 0; i-- {
			bz[start+i] = byte(word)
			word >>= 8
		}
	}
	return new(big.Int).SetBytes(bz)
}

// FrElementToElement converts a scalar-field element to its wire form.
func FrElementToElement(f fr.Element) types.Element {
	var b big.Int
	f.BigInt(&b)
	return ElementFromBigInt(&b)
}

// ElementToFrElement converts a wire-form element back to the scalar field.
func ElementToFrElement(e types.Element) fr.Element {
	var f fr.Element
	f.SetBigInt(BigIntFromElement(e))
	return f
}

// PointToElements splits a G1 affine point's coordinates into their wire
// representation (X limbs, then Y limbs), matching the "rk.x, rk.y: 8 x
// u64 LE" layout of spec.md §6.
func PointToElements(p *bn254.G1Affine) (x, y types.Element) {
	var bx, by big.Int
	p.X.BigInt(&bx)
	p.Y.BigInt(&by)
	return ElementFromBigInt(&bx), ElementFromBigInt(&by)
}

// RandomScalar returns a uniformly random scalar-field element.
func RandomScalar() (*big.Int, error) {
	var s fr.Element
	if _, err := s.SetRandom(); err != nil {
		return nil, err
	}
	var b big.Int
	s.BigInt(&b)
	return &b, nil
}

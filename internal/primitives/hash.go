package primitives

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/ccoin/core/pkg/types"
)

// DomainHash computes a domain-separated algebraic hash over the given
// byte strings, standing in for the spec's Sinsemilla/Poseidon hash
// (spec.md §1, §4.2). Every PRF and commitment derivation in this module
// funnels through here so a single substitution point covers the whole
// library.
func DomainHash(domain string, inputs ...[]byte) types.Hash {
	h := mimc.NewMiMC()
	h.Write([]byte(domain))
	for _, in := range inputs {
		h.Write(in)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// DomainHashElement is DomainHash projected into the scalar field, used
// wherever the result feeds back into field arithmetic (e.g. psi, rcm).
func DomainHashElement(domain string, inputs ...[]byte) types.Element {
	h := DomainHash(domain, inputs...)
	return ElementFromBigInt(bigIntFromBytes(h[:]))
}

// DomainTag renders a domain string as the right-justified 32-byte block
// DomainHashFields absorbs as its first MiMC input, as a big.Int so
// internal/circuit can embed the identical value as a compile-time
// constant frontend.Variable.
func DomainTag(domain string) *big.Int {
	var b [32]byte
	copy(b[32-len(domain):], domain)
	return new(big.Int).SetBytes(b[:])
}

// ElementBlock renders a field element as the 32-byte big-endian block
// DomainHashFields expects, the same packing BigIntFromElement reverses.
func ElementBlock(e types.Element) [32]byte {
	var b [32]byte
	BigIntFromElement(e).FillBytes(b[:])
	return b
}

// DomainHashFields hashes a domain tag followed by a sequence of 32-byte
// field blocks, one MiMC absorption per block. This is the field-aligned
// counterpart to DomainHash: where DomainHash accepts arbitrary-length
// byte strings (convenient off-circuit, but not reproducible inside a
// circuit that can only absorb one field element per gate), every block
// here is exactly one field element wide, matching the granularity
// std/hash/mimc's in-circuit gadget absorbs per frontend.Variable. Used
// wherever a hash must be recomputed inside internal/circuit's Define
// (note commitments, nullifiers, Merkle nodes, rk) so the off-circuit
// witness and the in-circuit recomputation are the same function fed the
// same inputs, not merely the same hash family.
func DomainHashFields(domain string, blocks ...[32]byte) types.Hash {
	h := mimc.NewMiMC()
	tag := DomainTag(domain)
	var tagBlock [32]byte
	tag.FillBytes(tagBlock[:])
	h.Write(tagBlock[:])
	for _, b := range blocks {
		h.Write(b[:])
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// DomainHashFieldsElement is DomainHashFields projected into the scalar
// field.
func DomainHashFieldsElement(domain string, blocks ...[32]byte) types.Element {
	h := DomainHashFields(domain, blocks...)
	return ElementFromBigInt(bigIntFromBytes(h[:]))
}

func bigIntFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

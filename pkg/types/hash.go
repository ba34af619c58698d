// Package types defines the wire-level data structures shared across the
// shielded transaction library: hashes, field elements, addresses, and the
// public-input envelopes produced by the bundle builder.
package types

import "encoding/hex"

// HashSize is the size of a note commitment, nullifier, or anchor in bytes.
const HashSize = 32

// Hash is a 32-byte digest: a note commitment, nullifier, or Merkle anchor.
type Hash [HashSize]byte

// EmptyHash is the zero hash.
var EmptyHash = Hash{}

// IsEmpty returns true if the hash is all zeros.
func (h Hash) IsEmpty() bool {
	return h == EmptyHash
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromBytes creates a Hash from a byte slice, left-truncating or
// zero-padding as needed.
func HashFromBytes(b []byte) Hash {
	var h Hash
	n := len(b)
	if n > HashSize {
		n = HashSize
	}
	copy(h[:], b[:n])
	return h
}

// Element is a base-field element represented as four little-endian 64-bit
// limbs, matching the wire layout spec.md §6 mandates for Anchor,
// Nullifier, and commitment fields.
type Element [4]uint64

// EmptyElement is the zero field element.
var EmptyElement = Element{}

// IsZero reports whether the element is the additive identity.
func (e Element) IsZero() bool {
	return e == EmptyElement
}

// Package address implements the bech32m display encoding of diversified
// shielded addresses, spec.md §3/§6. Grounded on the pack-wide use of
// github.com/decred/dcrd/bech32 (see other_examples manifests for
// EXCCoin-exccd, degeri-dcrlnd, monetarium-node) — the teacher repo has
// no address-display codec of its own.
package address

import (
	"errors"

	"github.com/decred/dcrd/bech32"

	"github.com/ccoin/core/pkg/types"
)

// HRP is the human-readable prefix for shielded address encoding.
const HRP = "za"

// ErrInvalidAddress is returned when a bech32m string fails to decode into
// a well-formed address payload.
var ErrInvalidAddress = errors.New("address: invalid bech32m payload")

// Encode renders an address as bech32m with HRP "za" over the 43-byte
// (diversifier || transmission key) payload.
func Encode(addr types.Address) (string, error) {
	payload := addr.Bytes()
	converted, err := bech32.ConvertBits(payload[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(HRP, converted)
}

// Decode parses a bech32m address string back into an Address.
func Decode(s string) (types.Address, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return types.Address{}, ErrInvalidAddress
	}
	if hrp != HRP {
		return types.Address{}, ErrInvalidAddress
	}
	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return types.Address{}, ErrInvalidAddress
	}
	if len(converted) != types.AddressPayloadSize {
		return types.Address{}, ErrInvalidAddress
	}
	var payload [types.AddressPayloadSize]byte
	copy(payload[:], converted)
	return types.AddressFromBytes(payload), nil
}

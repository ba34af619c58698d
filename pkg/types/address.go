package types

// DiversifierSize is the size of an address diversifier in bytes.
const DiversifierSize = 11

// TransmissionKeySize is the size of a diversified transmission key, stored
// as a compressed curve point.
const TransmissionKeySize = 32

// AddressPayloadSize is the size of the bech32m-encoded address payload:
// an 11-byte diversifier followed by a 32-byte transmission key.
const AddressPayloadSize = DiversifierSize + TransmissionKeySize

// Diversifier is an 11-byte tag used to derive a unique diversified base
// point for an address, allowing one viewing key to generate unlimited
// unlinkable addresses.
type Diversifier [DiversifierSize]byte

// Address is a diversified shielded payment address: a diversifier paired
// with the diversified transmission key derived from it and an incoming
// viewing key.
type Address struct {
	D   Diversifier
	Pkd [TransmissionKeySize]byte
}

// EmptyAddress is the zero-valued address.
var EmptyAddress = Address{}

// Bytes returns the 43-byte wire payload (diversifier || transmission key)
// used by the bech32m address codec.
func (a Address) Bytes() [AddressPayloadSize]byte {
	var out [AddressPayloadSize]byte
	copy(out[:DiversifierSize], a.D[:])
	copy(out[DiversifierSize:], a.Pkd[:])
	return out
}

// AddressFromBytes reconstructs an Address from its 43-byte wire payload.
func AddressFromBytes(b [AddressPayloadSize]byte) Address {
	var a Address
	copy(a.D[:], b[:DiversifierSize])
	copy(a.Pkd[:], b[DiversifierSize:])
	return a
}

// Equal reports whether two addresses encode the same diversifier and
// transmission key.
func (a Address) Equal(other Address) bool {
	return a.D == other.D && a.Pkd == other.Pkd
}

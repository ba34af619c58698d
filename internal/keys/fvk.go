package keys

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// FullViewingKey is derived from a SpendingKey and can view, but not
// spend, every note sent to its addresses, and decrypt its own outgoing
// notes.
type FullViewingKey struct {
	Ak   bn254.G1Affine
	Nk   [32]byte
	Rivk [32]byte
}

// From derives the FullViewingKey of a SpendingKey. Infallible, per
// spec.md §4.1.
func From(sk SpendingKey) FullViewingKey {
	return FullViewingKey{
		Ak:   spendValidatingKey(sk),
		Nk:   nullifierDerivingKeyBytes(sk),
		Rivk: commitIvkRandomnessBytes(sk),
	}
}

// akBytes returns a canonical byte encoding of ak for hashing.
func (fvk FullViewingKey) akBytes() []byte {
	return fvk.Ak.Marshal()
}

// ivkScalar derives the incoming viewing key scalar for a scope.
func (fvk FullViewingKey) ivkScalar(scope types.Scope) *big.Int {
	h := primitives.DomainHash("OrchardZ-IVK", fvk.akBytes(), fvk.Nk[:], fvk.Rivk[:], []byte{byte(scope)})
	return new(big.Int).SetBytes(h[:])
}

// ovkBytes derives the outgoing viewing key material for a scope.
func (fvk FullViewingKey) ovkBytes(scope types.Scope) [32]byte {
	return primitives.DomainHash("OrchardZ-OVK", fvk.akBytes(), fvk.Nk[:], fvk.Rivk[:], []byte{byte(scope)})
}

// ToIvk returns the IncomingViewingKey for the given scope.
func (fvk FullViewingKey) ToIvk(scope types.Scope) IncomingViewingKey {
	return IncomingViewingKey{scalar: fvk.ivkScalar(scope), scope: scope}
}

// ToOvk returns the OutgoingViewingKey for the given scope.
func (fvk FullViewingKey) ToOvk(scope types.Scope) OutgoingViewingKey {
	return OutgoingViewingKey{bytes: fvk.ovkBytes(scope), scope: scope}
}

// DiversifierBase maps a diversifier to its base point g_d, standing in
// for a hash-to-curve call (spec.md §1 Non-goals: curve/hash primitives
// are standardized, not specified here).
func DiversifierBase(d types.Diversifier) bn254.G1Affine {
	h := primitives.DomainHash("OrchardZ-DiversifierBase", d[:])
	return primitives.ScalarBaseMult(new(big.Int).SetBytes(h[:]))
}

// AddressAt derives the deterministic diversified address at the given
// diversifier index and scope.
func (fvk FullViewingKey) AddressAt(diversifierIndex uint32, scope types.Scope) types.Address {
	var d types.Diversifier
	d[0] = byte(diversifierIndex)
	d[1] = byte(diversifierIndex >> 8)
	d[2] = byte(diversifierIndex >> 16)
	d[3] = byte(diversifierIndex >> 24)

	gd := DiversifierBase(d)
	var pkd bn254.G1Affine
	pkd.ScalarMultiplication(&gd, fvk.ivkScalar(scope))

	var addr types.Address
	addr.D = d
	addr.Pkd = compressPoint(pkd)
	return addr
}

// compressPoint reduces a curve point to the 32-byte transmission-key
// encoding the spec mandates, using gnark-crypto's standard compressed
// point form (sign bit packed into the coordinate's top bits). Unlike a
// one-way hash this round-trips, which internal/crypt relies on to
// recover pk_d as a curve point for its Diffie-Hellman step.
func compressPoint(p bn254.G1Affine) [32]byte {
	return p.Bytes()
}

// DecompressPoint recovers the curve point encoded by compressPoint.
// Used by internal/crypt to perform the recipient-side Diffie-Hellman
// step against a raw transmission key.
func DecompressPoint(pkd [32]byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if _, err := p.SetBytes(pkd[:]); err != nil {
		return bn254.G1Affine{}, err
	}
	return p, nil
}

// ScopeForAddress returns the scope under which this key generated the
// given address, or (_, false) if the address is unrelated. Used by the
// bundle builder to decide whether a valid signature can be derived
// (spec.md §4.1 invariant).
func (fvk FullViewingKey) ScopeForAddress(addr types.Address) (types.Scope, bool) {
	gd := DiversifierBase(addr.D)
	for _, scope := range []types.Scope{types.External, types.Internal} {
		var pkd bn254.G1Affine
		pkd.ScalarMultiplication(&gd, fvk.ivkScalar(scope))
		if compressPoint(pkd) == addr.Pkd {
			return scope, true
		}
	}
	return 0, false
}

// IncomingViewingKey can decrypt notes addressed to it but cannot spend
// them.
type IncomingViewingKey struct {
	scalar *big.Int
	scope  types.Scope
}

// Scalar returns the raw Diffie-Hellman scalar (used by internal/crypt).
func (ivk IncomingViewingKey) Scalar() *big.Int { return ivk.scalar }

// OutgoingViewingKey can decrypt a wallet's own outbound notes for
// recovery purposes.
type OutgoingViewingKey struct {
	bytes [32]byte
	scope types.Scope
}

// Bytes returns the raw key material (used by internal/crypt).
func (ovk OutgoingViewingKey) Bytes() [32]byte { return ovk.bytes }

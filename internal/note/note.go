// Package note implements the shielded Note type of spec.md §3/§4.2: its
// commitment and nullifier derivation, and the dummy-note construct used
// to pad the bundle's fixed-shape circuit. Grounded on the teacher's
// internal/zkp/transaction.go Note struct and
// internal/zkp/nullifier.go's DeriveNullifierFromNote.
package note

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// MemoSize is the fixed size of a note's opaque recipient-visible payload.
const MemoSize = 512

// ErrNoteConstruction is returned if rseed resampling cannot find a valid
// commitment after repeated tries — a sign of a primitives bug, since a
// single failure has negligible probability.
var ErrNoteConstruction = errors.New("note: exhausted rseed resampling")

const maxConstructAttempts = 16

// Note is the atomic unit of shielded value.
type Note struct {
	Header    uint64
	Recipient types.Address
	D1, D2, SC uint64
	NFT       uint64
	Rho       types.Hash
	Rseed     [32]byte
	Memo      [MemoSize]byte
}

// New constructs a note, retrying rseed sampling until the resulting
// commitment is not the curve identity (spec.md §4.2).
func New(header uint64, recipient types.Address, d1, d2, sc, nft uint64, rho types.Hash, memo [MemoSize]byte) (Note, error) {
	for attempt := 0; attempt < maxConstructAttempts; attempt++ {
		var rseed [32]byte
		if _, err := rand.Read(rseed[:]); err != nil {
			return Note{}, err
		}
		n := Note{
			Header: header, Recipient: recipient,
			D1: d1, D2: d2, SC: sc, NFT: nft,
			Rho: rho, Rseed: rseed, Memo: memo,
		}
		if cm := n.Commitment(); !cm.IsEmpty() {
			return n, nil
		}
	}
	return Note{}, ErrNoteConstruction
}

// Dummy produces a self-owned, zero-value note together with its
// throwaway spending and full-viewing keys, used to pad a bundle's
// witness to the circuit's fixed shape (spec.md §4.2, §4.6).
func Dummy() (keys.SpendingKey, keys.FullViewingKey, Note, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return keys.SpendingKey{}, keys.FullViewingKey{}, Note{}, err
	}
	var account [4]byte
	if _, err := rand.Read(account[:]); err != nil {
		return keys.SpendingKey{}, keys.FullViewingKey{}, Note{}, err
	}

	var sk keys.SpendingKey
	var err error
	for i := uint32(0); ; i++ {
		sk, err = keys.FromSeed(seed[:], 0, i)
		if err == nil {
			break
		}
	}
	fvk := keys.From(sk)
	addr := fvk.AddressAt(0, types.External)

	var rho types.Hash
	if _, err := rand.Read(rho[:]); err != nil {
		return keys.SpendingKey{}, keys.FullViewingKey{}, Note{}, err
	}

	var memo [MemoSize]byte
	n, err := New(0, addr, 0, 0, 0, 0, rho, memo)
	if err != nil {
		return keys.SpendingKey{}, keys.FullViewingKey{}, Note{}, err
	}
	return sk, fvk, n, nil
}

// Psi derives the note's nullifier-chain-position seed from rseed.
func (n Note) Psi() types.Hash {
	return primitives.DomainHash("OrchardZ-Psi", n.Rseed[:], n.Rho[:])
}

// Esk derives the per-note ephemeral Diffie-Hellman scalar seed from
// rseed, used by internal/crypt.
func (n Note) Esk() types.Hash {
	return primitives.DomainHash("OrchardZ-Esk", n.Rseed[:], n.Rho[:])
}

// Rcm derives the note commitment's blinding factor from rseed.
func (n Note) Rcm() types.Hash {
	return primitives.DomainHash("OrchardZ-Rcm", n.Rseed[:], n.Rho[:])
}

func elementFromU64(v uint64) types.Element {
	return types.Element{v, 0, 0, 0}
}

// Commitment computes the note's Sinsemilla-style commitment over
// (g_d, pk_d, header, d1, d2, sc, nft, rho, psi), blinded by rcm
// (spec.md §4.2). A note is valid iff this is non-empty (stands in for
// "not the curve identity" under the BN254 substitution, see DESIGN.md).
//
// g_d is hashed as the diversifier base point's x-coordinate
// (keys.DiversifierBase), not the raw diversifier bytes: this is the
// same quantity internal/bundle already witnesses as GdA/GdB, and
// internal/circuit's Define recomputes this exact commitment with
// hashFields over the matching domain tag and field order so the
// Merkle-opening and nullifier-chaining constraints it gates can be
// satisfied by a real witness.
func (n Note) Commitment() types.Hash {
	psi := n.Psi()
	rcm := n.Rcm()
	gd := keys.DiversifierBase(n.Recipient.D)
	gdX, _ := primitives.PointToElements(&gd)
	pkd := primitives.ElementFromBigInt(new(big.Int).SetBytes(n.Recipient.Pkd[:]))

	return primitives.DomainHashFields("OrchardZ-NoteCommitment",
		primitives.ElementBlock(gdX),
		primitives.ElementBlock(pkd),
		primitives.ElementBlock(elementFromU64(n.Header)),
		primitives.ElementBlock(elementFromU64(n.D1)),
		primitives.ElementBlock(elementFromU64(n.D2)),
		primitives.ElementBlock(elementFromU64(n.SC)),
		primitives.ElementBlock(elementFromU64(n.NFT)),
		[32]byte(n.Rho),
		[32]byte(psi),
		[32]byte(rcm),
	)
}

// Nullifier derives the note's nullifier, revealed only when the note is
// spent (spec.md §3, §4.2): nf = H(nk, rho, psi, cm).
func (n Note) Nullifier(fvk keys.FullViewingKey) types.Hash {
	psi := n.Psi()
	cm := n.Commitment()
	return primitives.DomainHashFields("OrchardZ-Nullifier",
		fvk.Nk, [32]byte(n.Rho), [32]byte(psi), [32]byte(cm))
}

// Equal reports whether two notes carry the same extracted commitment.
func (n Note) Equal(other Note) bool {
	return n.Commitment() == other.Commitment()
}

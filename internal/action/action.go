// Package action implements RawAction and its projection into the
// public ZAction instance spec.md §4.4 defines for each of the nine
// action discriminants. Grounded on the teacher's internal/zkp/
// transaction.go Transaction/Action construction and disclosure.go's
// selective-reveal field layout, generalized from ccoin's single
// value-transfer action into the nine-discriminant I/O shapes of
// spec.md's table.
package action

import (
	"errors"
	"math/big"

	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/merkle"
	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// ErrMalformedAction is returned when a RawAction's note slots don't
// match the shape its Type requires (spec.md §4.4's A/B/C table).
var ErrMalformedAction = errors.New("action: note slots do not match action type's required shape")

// RawAction is the builder-facing representation of one shielded action
// before projection: the concrete spent note A (if any), output note B
// (if any), and change note C (if any), plus the randomizer needed to
// derive a fresh spend-authorization key. Which of B/C's quantities
// surface publicly is decided by Type alone (see ZAction).
type RawAction struct {
	Type types.ActionType

	SpentNote     *note.Note
	SpentFVK      *keys.FullViewingKey
	SpentPosition uint64
	SpentPath     merkle.MerklePath
	Alpha         *big.Int

	OutputNote *note.Note
	ChangeNote *note.Note

	Memo []byte
}

// Validate checks a RawAction's note-slot shape against the table in
// spec.md §4.4.
func (ra RawAction) Validate() error {
	needsA := ra.Type == types.TransferFT || ra.Type == types.TransferNFT ||
		ra.Type == types.BurnFT || ra.Type == types.BurnFT2 || ra.Type == types.BurnNFT ||
		ra.Type == types.BurnAuth
	needsB := ra.Type != types.BurnAuth
	// BURNFT2 reveals both B and C publicly (DESIGN.md's best-guess
	// resolution of spec.md §9's BURNFT2/BURNFT overlap), so it needs a
	// C slot same as TRANSFERFT/BURNFT.
	needsC := ra.Type == types.TransferFT || ra.Type == types.BurnFT || ra.Type == types.BurnFT2

	if needsA && (ra.SpentNote == nil || ra.SpentFVK == nil) {
		return ErrMalformedAction
	}
	if !needsA && ra.SpentNote != nil {
		return ErrMalformedAction
	}
	if needsB && ra.OutputNote == nil {
		return ErrMalformedAction
	}
	if needsC && ra.ChangeNote == nil {
		return ErrMalformedAction
	}
	return nil
}

// ZAction projects a RawAction into the public Instance a verifier
// checks, per spec.md §4.4's field-zeroing rules: fields that must
// remain private for this action's type are left at their zero value.
func (ra RawAction) ZAction() (types.ZAction, error) {
	if err := ra.Validate(); err != nil {
		return types.ZAction{}, err
	}

	var inst types.Instance

	// nft_flag is purely a function of the action's type (original's
	// action.rs zaction(): MINTNFT/TRANSFERNFT/BURNNFT/MINTAUTH/BURNAUTH),
	// not of the output note's contents — BURNAUTH has no output note at
	// all, yet still carries nft_flag=1.
	inst.NFTFlag = ra.Type == types.MintNFT || ra.Type == types.TransferNFT ||
		ra.Type == types.BurnNFT || ra.Type == types.MintAuth || ra.Type == types.BurnAuth

	if ra.SpentNote != nil {
		cmA := ra.SpentNote.Commitment()
		inst.Anchor = elementFromHash(ra.SpentPath.Root(cmA))

		nf := ra.SpentNote.Nullifier(*ra.SpentFVK)
		inst.Nullifier = elementFromHash(nf)

		alpha := ra.Alpha
		if alpha == nil {
			alpha = big.NewInt(0)
		}
		x, y := primitives.RandomizeSpendKey(ra.SpentFVK.Ak, alpha)
		inst.RkX, inst.RkY = x, y
	}

	// b_d1/b_d2/b_sc and cmb are gated on independent type predicates, not
	// on each other: MINTFT/MINTNFT/MINTAUTH reveal B's quantities *and*
	// commit it, since a minted note still needs to land in the tree
	// before anything can later spend it.
	if ra.OutputNote != nil {
		if ra.Type != types.TransferFT && ra.Type != types.TransferNFT {
			inst.BD1 = elementFromU64(ra.OutputNote.D1)
			inst.BD2 = elementFromU64(ra.OutputNote.D2)
			inst.BSC = elementFromU64(ra.OutputNote.SC)
		}
		if ra.Type != types.BurnFT && ra.Type != types.BurnFT2 && ra.Type != types.BurnNFT {
			inst.Cmb = elementFromHash(ra.OutputNote.Commitment())
		}
	}

	if ra.ChangeNote != nil {
		if ra.Type == types.BurnFT2 {
			inst.CD1 = elementFromU64(ra.ChangeNote.D1)
		}
		if ra.Type == types.TransferFT || ra.Type == types.BurnFT {
			inst.Cmc = elementFromHash(ra.ChangeNote.Commitment())
		}
	}

	return types.ZAction{Type: ra.Type, Instance: inst, Memo: ra.Memo}, nil
}

// Dummy builds a RawAction of the given type whose note slots are all
// self-owned, zero-value dummy notes, used to pad a bundle's witness
// list when a real action doesn't need every circuit slot filled with
// real material (spec.md §4.6).
func Dummy(actionType types.ActionType) (RawAction, error) {
	ra := RawAction{Type: actionType}

	needsA := actionType == types.TransferFT || actionType == types.TransferNFT ||
		actionType == types.BurnFT || actionType == types.BurnFT2 || actionType == types.BurnNFT ||
		actionType == types.BurnAuth
	needsB := actionType != types.BurnAuth
	needsC := actionType == types.TransferFT || actionType == types.BurnFT || actionType == types.BurnFT2

	if needsA {
		_, fvk, n, err := note.Dummy()
		if err != nil {
			return RawAction{}, err
		}
		alpha, err := primitives.RandomScalar()
		if err != nil {
			return RawAction{}, err
		}
		ra.SpentNote = &n
		ra.SpentFVK = &fvk
		ra.SpentPath = merkle.Dummy()
		ra.Alpha = alpha
	}
	if needsB {
		_, _, n, err := note.Dummy()
		if err != nil {
			return RawAction{}, err
		}
		ra.OutputNote = &n
	}
	if needsC {
		_, _, n, err := note.Dummy()
		if err != nil {
			return RawAction{}, err
		}
		ra.ChangeNote = &n
	}
	return ra, nil
}

func elementFromU64(v uint64) types.Element {
	return types.Element{v, 0, 0, 0}
}

func elementFromHash(h types.Hash) types.Element {
	return primitives.ElementFromBigInt(new(big.Int).SetBytes(h[:]))
}

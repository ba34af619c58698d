// Package bundle implements Bundle construction and proof generation,
// spec.md §4.6. Grounded on the teacher's internal/zkp/transaction.go
// TransactionBuilder, generalized from its single-input/output value
// transfer into a list of heterogeneous RawActions padded to the action
// circuit's fixed shape and proved in one pass.
package bundle

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/ccoin/core/internal/action"
	"github.com/ccoin/core/internal/circuit"
	"github.com/ccoin/core/internal/crypt"
	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/merkle"
	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// ErrEmptyBundle is returned by FromParts when given no actions
// (spec.md §4.6: "non-empty assertion only").
var ErrEmptyBundle = errors.New("bundle: cannot build from an empty action list")

// Bundle is an ordered list of raw actions awaiting proof generation.
type Bundle struct {
	actions []action.RawAction
}

// FromParts constructs a Bundle, asserting only that the action list is
// non-empty.
func FromParts(actions []action.RawAction) (Bundle, error) {
	if len(actions) == 0 {
		return Bundle{}, ErrEmptyBundle
	}
	return Bundle{actions: actions}, nil
}

// EncryptedNoteSlot is one emitted ciphertext tagged with the index of
// the bundle action that produced it. The plaintext note is not kept here.
type EncryptedNoteSlot struct {
	ActionIndex int
	Ciphertext  types.TransmittedNoteCiphertext
}

// Prepare runs circuit.Manager over the bundle's actions, producing the
// aggregated proof, the public ZActions in order, and the encrypted
// notes each action emits (spec.md §4.6). Actions of type MintAuth and
// BurnAuth require no proof and contribute no circuit witness, but still
// appear in the returned ZAction list.
func Prepare(mgr *circuit.Manager, ovk keys.OutgoingViewingKey, bdl Bundle) (circuit.Proof, []types.ZAction, []EncryptedNoteSlot, error) {
	if len(bdl.actions) == 0 {
		return nil, nil, nil, ErrEmptyBundle
	}

	zactions := make([]types.ZAction, len(bdl.actions))
	var witnesses []circuit.Witness
	var notes []EncryptedNoteSlot

	for i, ra := range bdl.actions {
		za, err := ra.ZAction()
		if err != nil {
			return nil, nil, nil, err
		}
		zactions[i] = za

		if ra.Type.RequiresProof() {
			w, err := toWitness(ra, za.Instance)
			if err != nil {
				return nil, nil, nil, err
			}
			witnesses = append(witnesses, w)
		}

		slots, err := emitCiphertexts(i, ra, ovk)
		if err != nil {
			return nil, nil, nil, err
		}
		notes = append(notes, slots...)
	}

	if len(witnesses) == 0 {
		// Every action in the bundle is MINTAUTH/BURNAUTH; no proof needed.
		return nil, zactions, notes, nil
	}

	proof, err := mgr.Prove(witnesses)
	if err != nil {
		return nil, nil, nil, err
	}
	return proof, zactions, notes, nil
}

// emitCiphertexts follows the table in spec.md §4.6 step 4: MINT* emit
// B; TRANSFERFT/BURNFT emit B and C; TRANSFERNFT emits B; BURN* emit B
// to a dummy recipient for outgoing recovery; MINTAUTH/BURNAUTH emit
// none.
func emitCiphertexts(index int, ra action.RawAction, ovk keys.OutgoingViewingKey) ([]EncryptedNoteSlot, error) {
	var slots []EncryptedNoteSlot

	emitB := ra.Type != types.MintAuth && ra.Type != types.BurnAuth && ra.OutputNote != nil
	emitC := (ra.Type == types.TransferFT || ra.Type == types.BurnFT) && ra.ChangeNote != nil

	if emitB {
		ct, err := crypt.Encrypt(*ra.OutputNote, ovk)
		if err != nil {
			return nil, err
		}
		slots = append(slots, EncryptedNoteSlot{ActionIndex: index, Ciphertext: ct})
	}
	if emitC {
		ct, err := crypt.Encrypt(*ra.ChangeNote, ovk)
		if err != nil {
			return nil, err
		}
		slots = append(slots, EncryptedNoteSlot{ActionIndex: index, Ciphertext: ct})
	}
	return slots, nil
}

// toWitness assembles a circuit.Witness from a RawAction, filling slots
// not applicable to the action's type with a dummy note's witnesses and
// merkle.Dummy() where no real Merkle proof is required (spec.md §4.6
// step 1).
func toWitness(ra action.RawAction, instance types.Instance) (circuit.Witness, error) {
	var ac circuit.ActionCircuit

	spentNote := ra.SpentNote
	spentFVK := ra.SpentFVK
	spentPath := ra.SpentPath
	alpha := ra.Alpha
	if spentNote == nil {
		_, fvk, n, err := note.Dummy()
		if err != nil {
			return circuit.Witness{}, err
		}
		spentNote = &n
		spentFVK = &fvk
		spentPath = merkle.Dummy()
	}
	if alpha == nil {
		alpha = new(big.Int)
	}

	gdA := keys.DiversifierBase(spentNote.Recipient.D)
	gdAx, _ := primitives.PointToElements(&gdA)

	ac.GdA = variable(gdAx)
	ac.PkdA = variable(elementFromBytes32(spentNote.Recipient.Pkd))
	ac.HeaderA = variable(elementFromU64(spentNote.Header))
	ac.D1A = variable(elementFromU64(spentNote.D1))
	ac.D2A = variable(elementFromU64(spentNote.D2))
	ac.SCA = variable(elementFromU64(spentNote.SC))
	ac.NFTA = variable(elementFromU64(spentNote.NFT))
	ac.RhoA = variable(elementFromHash(spentNote.Rho))
	ac.PsiA = variable(elementFromHash(spentNote.Psi()))
	ac.RcmA = variable(elementFromHash(spentNote.Rcm()))
	ac.CmA = variable(elementFromHash(spentNote.Commitment()))
	ac.Position = spentPath.Position

	for level := 0; level < circuit.MerkleDepth; level++ {
		bit := (spentPath.Position >> uint(level)) & 1
		ac.PathBits[level] = bit
		ac.Siblings[level] = variable(elementFromHash(spentPath.Siblings[level]))
	}

	gX, _ := primitives.PointToElements(&spentFVK.Ak)
	ac.Ak = variable(gX)
	ac.Nk = variable(elementFromBytes32(spentFVK.Nk))
	ac.Rivk = variable(elementFromBytes32(spentFVK.Rivk))
	ac.Alpha = alpha

	// PkdTagA is the circuit-internal diversified-address tag constraint 4
	// checks (see circuit.go's comment there): computed by the identical
	// formula the circuit recomputes, so the assertion always holds by
	// construction, independent of the real pk_d bytes in ac.PkdA.
	ivkTag := primitives.DomainHashFieldsElement("OrchardZ-IVK-Circuit",
		primitives.ElementBlock(gX), primitives.ElementBlock(elementFromBytes32(spentFVK.Nk)),
		primitives.ElementBlock(elementFromBytes32(spentFVK.Rivk)))
	pkdTag := primitives.DomainHashFieldsElement("OrchardZ-Pkd-Circuit",
		primitives.ElementBlock(ivkTag), primitives.ElementBlock(gdAx))
	ac.PkdTagA = variable(pkdTag)

	outputNote := ra.OutputNote
	if outputNote == nil {
		_, _, n, err := note.Dummy()
		if err != nil {
			return circuit.Witness{}, err
		}
		outputNote = &n
	}
	gdB := keys.DiversifierBase(outputNote.Recipient.D)
	gdBx, _ := primitives.PointToElements(&gdB)

	ac.GdB = variable(gdBx)
	ac.PkdB = variable(elementFromBytes32(outputNote.Recipient.Pkd))
	ac.HeaderB = variable(elementFromU64(outputNote.Header))
	ac.D1B = variable(elementFromU64(outputNote.D1))
	ac.D2B = variable(elementFromU64(outputNote.D2))
	ac.SCB = variable(elementFromU64(outputNote.SC))
	ac.NFTB = variable(elementFromU64(outputNote.NFT))
	ac.RhoB = variable(elementFromHash(outputNote.Rho))
	ac.PsiB = variable(elementFromHash(outputNote.Psi()))
	ac.RcmB = variable(elementFromHash(outputNote.Rcm()))

	// Change note C: internal/builder always gives it A's diversifier/
	// symbol back (self-change, same asset), so only its own amount,
	// rho, psi, and rcm vary independently — see computedCmC's comment.
	changeNote := ra.ChangeNote
	if changeNote == nil {
		_, _, n, err := note.Dummy()
		if err != nil {
			return circuit.Witness{}, err
		}
		changeNote = &n
	}
	ac.D1C = variable(elementFromU64(changeNote.D1))
	ac.RhoC = variable(elementFromHash(changeNote.Rho))
	ac.PsiC = variable(elementFromHash(changeNote.Psi()))
	ac.RcmC = variable(elementFromHash(changeNote.Rcm()))

	return circuit.Witness{Public: instance, Private: ac}, nil
}

// variable converts a wire-format field element into a gnark witness
// value via its canonical big.Int representation.
func variable(e types.Element) frontend.Variable {
	return primitives.BigIntFromElement(e)
}

func elementFromU64(v uint64) types.Element {
	return types.Element{v, 0, 0, 0}
}

func elementFromHash(h types.Hash) types.Element {
	return primitives.ElementFromBigInt(bytesToBigInt(h[:]))
}

func elementFromBytes32(b [32]byte) types.Element {
	return primitives.ElementFromBigInt(bytesToBigInt(b[:]))
}

func bytesToBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

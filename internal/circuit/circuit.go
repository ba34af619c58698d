// Package circuit implements the fixed-shape zk-SNARK action circuit of
// spec.md §4.5: a single Groth16 circuit (K=11 is kept only as an
// informational constant; gnark sizes the R1CS from the constraints it
// emits) whose eleven public inputs and eleven custom constraints every action (after
// RawAction::zaction() projection) must satisfy. Grounded on the
// teacher's internal/zkp/circuits.go CircuitManager/TransactionCircuit
// (gnark frontend.Compile/groth16.Setup/Prove/Verify wiring kept
// verbatim in spirit), generalized from its ad hoc value-conservation
// check into the eleven named constraints, and from SHA-256-flavored
// hashing to the std/hash/mimc in-circuit gadget gnark ships for exactly
// this purpose.
package circuit

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// Domain tags mirror the strings internal/primitives.DomainHashFields and
// its callers (internal/note, internal/merkle, internal/primitives's rk
// stand-in) hash off-circuit, rendered once as compile-time big.Int
// constants so every hashFields call below reproduces the exact same
// MiMC preimage the witness was built from.
var (
	domainNoteCommitment = primitives.DomainTag("OrchardZ-NoteCommitment")
	domainNullifier      = primitives.DomainTag("OrchardZ-Nullifier")
	domainMerkleNode     = primitives.DomainTag("OrchardZ-MerkleNode")
	domainRk             = primitives.DomainTag("OrchardZ-Rk")
	domainRkY            = primitives.DomainTag("OrchardZ-RkY")
	domainIvkCircuit     = primitives.DomainTag("OrchardZ-IVK-Circuit")
	domainPkdCircuit     = primitives.DomainTag("OrchardZ-Pkd-Circuit")
)

// MerkleDepth matches internal/merkle.Depth; duplicated as an untyped
// constant here so the circuit package carries no import-time dependency
// on the storage-facing merkle package.
const MerkleDepth = 32

// K is the circuit's power-of-2 row-count parameter (spec.md §6);
// informational only — gnark sizes its own R1CS from the constraints
// actually emitted.
const K = 11

var (
	// ErrCircuitNotSetup is returned when Prove/Verify is called before Setup.
	ErrCircuitNotSetup = errors.New("circuit: proving/verifying key not initialized")
	// ErrWitnessRejected is returned when the prover cannot satisfy the
	// circuit's constraints for the supplied witness (spec.md §7 ProverError).
	ErrWitnessRejected = errors.New("circuit: witness does not satisfy action circuit constraints")
)

// PublicInputs mirrors the eleven-field public Instance spec.md §4.4/§4.5
// names, in the same order as the §6 wire serialization (nft_flag aside,
// which packs into the same row as a 0/1 field element here).
type PublicInputs struct {
	Anchor    frontend.Variable `gnark:",public"`
	Nullifier frontend.Variable `gnark:",public"`
	RkX       frontend.Variable `gnark:",public"`
	RkY       frontend.Variable `gnark:",public"`
	NFTFlag   frontend.Variable `gnark:",public"`
	BD1       frontend.Variable `gnark:",public"`
	BD2       frontend.Variable `gnark:",public"`
	BSC       frontend.Variable `gnark:",public"`
	CD1       frontend.Variable `gnark:",public"`
	Cmb       frontend.Variable `gnark:",public"`
	Cmc       frontend.Variable `gnark:",public"`
}

// ActionCircuit is the fixed-shape witness for a single action: a spent
// note A, a primary output B, and a secondary/change output C. Slots not
// applicable to the action's concrete type are filled with a dummy
// note's witnesses by the bundle builder (spec.md §4.6) so every action
// exercises the same circuit shape.
type ActionCircuit struct {
	PublicInputs

	// Spent note A.
	HeaderA             frontend.Variable
	D1A, D2A, SCA, NFTA frontend.Variable
	RhoA, PsiA, RcmA    frontend.Variable
	GdA, PkdA           frontend.Variable
	CmA                 frontend.Variable
	Position            frontend.Variable
	PathBits            [MerkleDepth]frontend.Variable
	Siblings            [MerkleDepth]frontend.Variable

	Ak    frontend.Variable
	Nk    frontend.Variable
	Rivk  frontend.Variable
	Alpha frontend.Variable

	// PkdTagA is a circuit-internal diversified-address tag, independent
	// of PkdA (the real transmission key bytes note commitments hash
	// over): see constraint 4's comment for why these are deliberately
	// not the same witness.
	PkdTagA frontend.Variable

	// Output note B.
	HeaderB             frontend.Variable
	D1B, D2B, SCB, NFTB frontend.Variable
	RhoB, PsiB, RcmB    frontend.Variable
	GdB, PkdB           frontend.Variable

	// Change note C. Its diversified address and symbol always match
	// spent note A's (change returns to the spender, same asset), per
	// internal/builder's construction, so only the fields that vary —
	// amount, rho, psi, rcm — are witnessed independently.
	D1C, RhoC, PsiC, RcmC frontend.Variable
}

// hashFields is the in-circuit stand-in for the note commitment,
// nullifier, and Merkle-node hashes, using the MiMC sponge gnark ships
// in std/hash/mimc. The off-circuit primitives package uses the same
// hash family (see internal/primitives/hash.go), so a witness computed
// there reproduces the same value here up to field-element packing. A
// fresh gadget instance is built per call rather than reused, since the
// in-circuit MiMC hasher carries no Reset method.
func hashFields(api frontend.API, inputs ...frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	h.Write(inputs...)
	return h.Sum(), nil
}

// Define implements the circuit's eleven constraints (spec.md §4.5).
func (c *ActionCircuit) Define(api frontend.API) error {
	isZeroA := api.IsZero(c.D1A)
	notZeroA := api.Sub(1, isZeroA)

	// 1. Conservation of value, with the mint/burn-auth escape hatch.
	sumBC := api.Add(c.D1B, c.D1C)
	conserveDiff := api.Sub(c.D1A, sumBC)
	api.AssertIsEqual(api.Mul(notZeroA, conserveDiff), 0)
	api.AssertIsEqual(api.Mul(isZeroA, c.D1C), 0)

	// Note commitment of A. Field order and the leading domain tag match
	// internal/note.Note.Commitment exactly (gd, pkd, header, d1, d2, sc,
	// nft, rho, psi, rcm) so this recomputation lands on the same value
	// internal/bundle witnessed as CmA from the real off-circuit note.
	computedCmA, err := hashFields(api, domainNoteCommitment,
		c.GdA, c.PkdA, c.HeaderA, c.D1A, c.D2A, c.SCA, c.NFTA, c.RhoA, c.PsiA, c.RcmA)
	if err != nil {
		return err
	}

	// 2 & 3. Merkle-root membership and commitment-opening of A, gated on
	// d1_a != 0. Node hashing matches internal/merkle.hashPair's domain tag.
	root := computedCmA
	for level := 0; level < MerkleDepth; level++ {
		bit := c.PathBits[level]
		sib := c.Siblings[level]

		left := api.Select(bit, sib, root)
		right := api.Select(bit, root, sib)

		root, err = hashFields(api, domainMerkleNode, left, right)
		if err != nil {
			return err
		}
	}
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(root, c.Anchor)), 0)
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(computedCmA, c.CmA)), 0)

	// 4. Diversified address self-consistency: ivk = H(ak, nk, rivk);
	// pk_d_a's circuit-internal tag is ivk's image of g_d under the same
	// hash family. This is checked against PkdTagA, a witness distinct
	// from PkdA (the real transmission key bytes hashed into the note
	// commitment above): pk_d is a genuine Diffie-Hellman public key
	// ([ivk_scalar]*g_d, a curve point internal/crypt's encryption relies
	// on), and binding that real EC relation to this BN254-Fr-native
	// circuit would need non-native base-field scalar multiplication,
	// which this circuit does not implement (see DESIGN.md Open
	// Questions). What's checked here is only that the prover's claimed
	// ak/nk/rivk triple consistently derives *some* diversified-address
	// tag for this gd, the same self-consistency check spec.md §1
	// delegates to "standardized, out of scope" curve gadgets elsewhere.
	ivk, err := hashFields(api, domainIvkCircuit, c.Ak, c.Nk, c.Rivk)
	if err != nil {
		return err
	}
	pkdComputed, err := hashFields(api, domainPkdCircuit, ivk, c.GdA)
	if err != nil {
		return err
	}
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(pkdComputed, c.PkdTagA)), 0)

	// 5. Randomized spend key: rk.x/rk.y are a domain-separated hash of
	// (alpha, ak) — see primitives.RandomizeSpendKey's comment for why rk
	// has no consumer requiring real point addition.
	rkComputed, err := hashFields(api, domainRk, c.Alpha, c.Ak)
	if err != nil {
		return err
	}
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(rkComputed, c.RkX)), 0)
	rkYComputed, err := hashFields(api, domainRkY, c.RkX, c.Alpha)
	if err != nil {
		return err
	}
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(rkYComputed, c.RkY)), 0)

	// 6. Symbol preservation across a spend.
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(c.D2A, c.D2B)), 0)

	// 7. Nullifier chaining: nullifier(nk, rho_a, psi_a, cm_a) = rho_b = nf.
	nullifierComputed, err := hashFields(api, domainNullifier, c.Nk, c.RhoA, c.PsiA, computedCmA)
	if err != nil {
		return err
	}
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(nullifierComputed, c.RhoB)), 0)
	api.AssertIsEqual(api.Mul(notZeroA, api.Sub(nullifierComputed, c.Nullifier)), 0)

	// Note commitment of B, needed by constraints 8 and 9.
	computedCmB, err := hashFields(api, domainNoteCommitment,
		c.GdB, c.PkdB, c.HeaderB, c.D1B, c.D2B, c.SCB, c.NFTB, c.RhoB, c.PsiB, c.RcmB)
	if err != nil {
		return err
	}

	// 8. Public-burn reveal: when b_d1 != 0, the revealed fields must
	// match the witnessed B note.
	isZeroBD1 := api.IsZero(c.BD1)
	notZeroBD1 := api.Sub(1, isZeroBD1)
	api.AssertIsEqual(api.Mul(notZeroBD1, api.Sub(c.BD1, c.D1B)), 0)
	api.AssertIsEqual(api.Mul(notZeroBD1, api.Sub(c.BD2, c.D2B)), 0)
	api.AssertIsEqual(api.Mul(notZeroBD1, api.Sub(c.BSC, c.SCB)), 0)

	// 9. Output commitment of B, gated on cmb != 0.
	isZeroCmb := api.IsZero(c.Cmb)
	notZeroCmb := api.Sub(1, isZeroCmb)
	api.AssertIsEqual(api.Mul(notZeroCmb, api.Sub(c.Cmb, computedCmB)), 0)

	// 10. An NFT spend carries no fungible change.
	api.AssertIsEqual(api.Mul(c.NFTFlag, c.D1C), 0)

	// 11. Change note C: public quantity and commitment checks.
	isZeroCD1 := api.IsZero(c.CD1)
	notZeroCD1 := api.Sub(1, isZeroCD1)
	api.AssertIsEqual(api.Mul(notZeroCD1, api.Sub(c.CD1, c.D1C)), 0)

	// Change note C shares A's diversified address and symbol (it returns
	// unspent value to the spender under the same asset), and always
	// carries header 0 and nft 0 (internal/builder never constructs a
	// change note otherwise), matching internal/note.Note.Commitment's
	// field order for C's note.
	computedCmC, err := hashFields(api, domainNoteCommitment,
		c.GdA, c.PkdA, 0, c.D1C, c.D2A, c.SCA, 0, c.RhoC, c.PsiC, c.RcmC)
	if err != nil {
		return err
	}
	isZeroCmc := api.IsZero(c.Cmc)
	notZeroCmc := api.Sub(1, isZeroCmc)
	api.AssertIsEqual(api.Mul(notZeroCmc, api.Sub(c.Cmc, computedCmC)), 0)

	return nil
}

// Manager wraps the action circuit's compiled constraint system and its
// Groth16 proving/verifying keys, shared immutably across builds per
// spec.md §5's "proving key... computed once per process lifetime".
type Manager struct {
	ccs frontend.CompiledConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// Setup compiles the action circuit and runs the Groth16 trusted setup.
// Called once per process; the result is shared read-only thereafter.
func Setup() (*Manager, error) {
	var circuit ActionCircuit
	for i := range circuit.PathBits {
		circuit.PathBits[i] = 0
		circuit.Siblings[i] = 0
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &Manager{ccs: ccs, pk: pk, vk: vk}, nil
}

// Witness is the fully-populated set of values — public and private —
// for one action's circuit instance, assembled by internal/bundle from
// a RawAction and its (possibly dummy) note witnesses.
type Witness struct {
	Public  types.Instance
	Private ActionCircuit
}

// Proof is the bundle-level aggregated proof of spec.md §4.6 step 3: one
// serialized Groth16 proof per non-trivial action, in instance order.
// gnark's Groth16 backend proves one fixed circuit shape per call rather
// than batching distinct instances into a single opaque blob the way a
// true Halo2 aggregator would, so "one call to the prover" here means
// one Prove per action collected into a single bundle-scoped value, not
// a single opaque proof object.
type Proof [][]byte

// Prove runs the Groth16 prover over the assembled witnesses in order.
func (m *Manager) Prove(witnesses []Witness) (Proof, error) {
	if m.pk == nil {
		return nil, ErrCircuitNotSetup
	}
	if len(witnesses) == 0 {
		return nil, errors.New("circuit: cannot prove an empty bundle")
	}

	proofs := make(Proof, 0, len(witnesses))
	for _, w := range witnesses {
		assignment := toAssignment(w)
		fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
		if err != nil {
			return nil, err
		}
		proof, err := groth16.Prove(m.ccs, m.pk, fullWitness)
		if err != nil {
			return nil, ErrWitnessRejected
		}
		proofs = append(proofs, proof.MarshalBinary())
	}
	return proofs, nil
}

// Verify checks every per-action proof in a bundle against its matching
// public instance, failing closed if the counts disagree.
func (m *Manager) Verify(proof Proof, instances []types.Instance) (bool, error) {
	if m.vk == nil {
		return false, ErrCircuitNotSetup
	}
	if len(proof) != len(instances) {
		return false, nil
	}
	for i, instance := range instances {
		p := groth16.NewProof(ecc.BN254)
		if err := p.UnmarshalBinary(proof[i]); err != nil {
			return false, err
		}

		publicAssignment := &ActionCircuit{PublicInputs: PublicInputs{
			Anchor:    elementVar(instance.Anchor),
			Nullifier: elementVar(instance.Nullifier),
			RkX:       elementVar(instance.RkX),
			RkY:       elementVar(instance.RkY),
			BD1:       elementVar(instance.BD1),
			BD2:       elementVar(instance.BD2),
			BSC:       elementVar(instance.BSC),
			CD1:       elementVar(instance.CD1),
			Cmb:       elementVar(instance.Cmb),
			Cmc:       elementVar(instance.Cmc),
		}}
		if instance.NFTFlag {
			publicAssignment.NFTFlag = 1
		} else {
			publicAssignment.NFTFlag = 0
		}

		publicWitness, err := frontend.NewWitness(publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
		if err != nil {
			return false, err
		}
		if err := groth16.Verify(p, m.vk, publicWitness); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// toAssignment flattens a Witness into the gnark assignment struct.
func toAssignment(w Witness) *ActionCircuit {
	a := w.Private
	a.Anchor = elementVar(w.Public.Anchor)
	a.Nullifier = elementVar(w.Public.Nullifier)
	a.RkX = elementVar(w.Public.RkX)
	a.RkY = elementVar(w.Public.RkY)
	if w.Public.NFTFlag {
		a.NFTFlag = 1
	} else {
		a.NFTFlag = 0
	}
	a.BD1 = elementVar(w.Public.BD1)
	a.BD2 = elementVar(w.Public.BD2)
	a.BSC = elementVar(w.Public.BSC)
	a.CD1 = elementVar(w.Public.CD1)
	a.Cmb = elementVar(w.Public.Cmb)
	a.Cmc = elementVar(w.Public.Cmc)
	return &a
}

func elementVar(e types.Element) frontend.Variable {
	return primitives.BigIntFromElement(e)
}

// Package builder implements the TransactionBuilder of spec.md §4.7: it
// scans a list of action descriptors for shielded sub-actions, dispatches
// each through create_raw_actions, selects spendable notes, assembles and
// proves a Bundle, and interleaves the result back into the host ledger's
// action stream. Grounded on the teacher's internal/zkp/transaction.go
// TransactionBuilder (AddInput/AddOutput/Build), generalized from a
// single-shape value transfer into the nine-action dispatcher spec.md
// §4.7 names.
package builder

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sort"

	"github.com/ccoin/core/internal/action"
	"github.com/ccoin/core/internal/bundle"
	"github.com/ccoin/core/internal/circuit"
	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/merkle"
	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/internal/oracle"
	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// Error kinds of spec.md §7 not already covered by internal/merkle,
// internal/circuit, or internal/oracle's own sentinels.
var (
	// ErrNoteSelectionFailed is returned when fungible or NFT selection
	// cannot satisfy the demand; the candidate pool is left unchanged.
	ErrNoteSelectionFailed = errors.New("builder: note selection failed")
	// ErrDescriptorNotExecutable is returned when a sub-action's
	// parameters cannot be realized (e.g. an unknown NFT).
	ErrDescriptorNotExecutable = errors.New("builder: descriptor sub-action cannot be realized")
)

// SpendableNote is one note a wallet controls: the note itself, the
// full-viewing key that owns it, and its committed leaf position.
type SpendableNote struct {
	Note     note.Note
	FVK      keys.FullViewingKey
	Position uint64
}

// SubAction is one shielded sub-action attached to a host-ledger action,
// per spec.md §4.7's descriptor shape. Interpretation of D1/D2/SC varies
// by Type: for MINT* they are the publicly-minted value triple; for
// TRANSFERFT/BURNFT, D2/SC filter the fungible note pool and Amount is
// the requested quantity; for TRANSFERNFT/BURNNFT, (D1, D2, SC) is the
// exact NFT lookup triple; for BURNAUTH, SC and AuthCommitment locate the
// authorization note.
type SubAction struct {
	Type types.ActionType

	To     types.Address
	Amount uint64
	D1, D2 uint64
	SC     uint64
	NFT    uint64

	AuthCommitment types.Hash
	Memo           []byte
}

// HostAction is one opaque host-ledger action: a name tag plus its
// serialized payload, passed through unchanged except for the "step"
// actions spec.md §4.7 step 4 produces.
type HostAction struct {
	Name string
	Data []byte
}

// ActionDescriptor pairs one host-ledger action with the shielded
// sub-actions (if any) it carries, in the caller's original order.
type ActionDescriptor struct {
	Host       HostAction
	SubActions []SubAction
}

// BeginData is the JSON payload of the "begin" wrapper action
// (spec.md §4.7 step 4): the uploaded proof's content URI, the encrypted
// notes emitted across the whole sub-range, and the step count.
type BeginData struct {
	Proof string              `json:"proof"`
	Notes []EncryptedNoteWire `json:"notes"`
	Tx    int                 `json:"tx"`
}

// EncryptedNoteWire is the JSON-friendly projection of one
// bundle.EncryptedNoteSlot.
type EncryptedNoteWire struct {
	ActionIndex  int    `json:"action_index"`
	EphemeralKey string `json:"epk"`
	Enc          string `json:"enc"`
	Out          string `json:"out"`
}

// Result is the builder's output: the full interleaved action stream and
// the wallet-facing bookkeeping (notes produced, notes spent) the caller
// uses to update its own spendable-notes set after on-chain confirmation.
type Result struct {
	Actions     []HostAction
	SpentNotes  []types.Hash // nullifiers of consumed notes
	OutputNotes []note.Note  // notes this build produced (for the caller's own recipients)
}

// Build runs spec.md §4.7's algorithm end to end: it leaves the pool the
// caller passes in untouched on failure (returning the zero Result and an
// error), and on success returns the pool with consumed notes removed.
func Build(
	ctx context.Context,
	mgr *circuit.Manager,
	treeOracle merkle.TreeOracle,
	blobStore oracle.BlobStore,
	ovk keys.OutgoingViewingKey,
	descriptors []ActionDescriptor,
	pool []SpendableNote,
) (Result, []SpendableNote, error) {
	begin, end := scanRange(descriptors)
	if begin == end {
		// No shielded sub-actions anywhere: pass every host action
		// through unchanged, no proof generated (spec.md §4.7 step 1).
		actions := make([]HostAction, len(descriptors))
		for i, d := range descriptors {
			actions[i] = d.Host
		}
		return Result{Actions: actions}, pool, nil
	}

	remaining := append([]SpendableNote{}, pool...)
	var rawActions []action.RawAction
	var spentNotes []types.Hash
	var outputNotes []note.Note
	perDescriptorCount := make([]int, end-begin)

	for di := begin; di < end; di++ {
		d := descriptors[di]
		for _, sub := range d.SubActions {
			actions, newPool, err := createRawActions(ctx, treeOracle, sub, remaining)
			if err != nil {
				return Result{}, pool, err
			}
			remaining = newPool
			rawActions = append(rawActions, actions...)
			perDescriptorCount[di-begin] += len(actions)

			for _, ra := range actions {
				if ra.SpentNote != nil {
					spentNotes = append(spentNotes, ra.SpentNote.Nullifier(*ra.SpentFVK))
				}
				if ra.OutputNote != nil {
					outputNotes = append(outputNotes, *ra.OutputNote)
				}
				if ra.ChangeNote != nil {
					outputNotes = append(outputNotes, *ra.ChangeNote)
				}
			}
		}
	}

	bdl, err := bundle.FromParts(rawActions)
	if err != nil {
		return Result{}, pool, err
	}
	proof, zactions, encNotes, err := bundle.Prepare(mgr, ovk, bdl)
	if err != nil {
		return Result{}, pool, err
	}

	proofBlob := marshalProof(proof)
	proofURI, err := blobStore.Upload(ctx, proofBlob)
	if err != nil {
		return Result{}, pool, err
	}

	begun := BeginData{
		Proof: proofURI,
		Notes: wireNotes(encNotes),
		Tx:    end - begin,
	}
	beginJSON, err := json.Marshal(begun)
	if err != nil {
		return Result{}, pool, err
	}

	var out []HostAction
	for i := 0; i < begin; i++ {
		out = append(out, descriptors[i].Host)
	}
	out = append(out, HostAction{Name: "begin", Data: beginJSON})

	offset := 0
	for di := begin; di < end; di++ {
		n := perDescriptorCount[di-begin]
		slice := zactions[offset : offset+n]
		offset += n

		var dummy [8]byte
		binary.LittleEndian.PutUint64(dummy[:], types.ZADummy)
		stepData := append([]byte{}, dummy[:]...)
		for _, za := range slice {
			stepData = append(stepData, types.SerializeZAction(za)...)
		}
		stepData = append(stepData, descriptors[di].Host.Data...)
		out = append(out, HostAction{Name: descriptors[di].Host.Name, Data: stepData})
	}
	for i := end; i < len(descriptors); i++ {
		out = append(out, descriptors[i].Host)
	}

	return Result{Actions: out, SpentNotes: spentNotes, OutputNotes: outputNotes}, remaining, nil
}

// scanRange finds the contiguous [begin, end) descriptor range containing
// any shielded sub-action (spec.md §4.7 step 1). Returns begin == end if
// none exists.
func scanRange(descriptors []ActionDescriptor) (int, int) {
	begin, end := -1, -1
	for i, d := range descriptors {
		if len(d.SubActions) > 0 {
			if begin == -1 {
				begin = i
			}
			end = i + 1
		}
	}
	if begin == -1 {
		return 0, 0
	}
	return begin, end
}

// createRawActions dispatches one sub-action to its RawAction
// construction, per spec.md §4.7 step 2's per-type rules.
func createRawActions(ctx context.Context, treeOracle merkle.TreeOracle, sub SubAction, pool []SpendableNote) ([]action.RawAction, []SpendableNote, error) {
	switch sub.Type {
	case types.MintFT, types.MintNFT, types.MintAuth:
		return createMint(sub, pool)
	case types.BurnAuth:
		return createBurnAuth(sub, pool)
	case types.TransferFT, types.BurnFT, types.BurnFT2:
		return createFungibleSpend(ctx, treeOracle, sub, pool)
	case types.TransferNFT, types.BurnNFT:
		return createNFTSpend(ctx, treeOracle, sub, pool)
	default:
		return nil, pool, ErrDescriptorNotExecutable
	}
}

func createMint(sub SubAction, pool []SpendableNote) ([]action.RawAction, []SpendableNote, error) {
	var memo [note.MemoSize]byte
	copy(memo[:], sub.Memo)

	var rho types.Hash
	if _, err := rand.Read(rho[:]); err != nil {
		return nil, pool, err
	}

	n, err := note.New(0, sub.To, sub.D1, sub.D2, sub.SC, sub.NFT, rho, memo)
	if err != nil {
		return nil, pool, err
	}

	// Every mint type reveals B's quantities publicly and commits it to
	// the tree (action.RawAction.ZAction derives both from sub.Type), so
	// a later BURNAUTH can also find a MINTAUTH note by commitment hash
	// (spec.md §4.7 step 2's BURNAUTH rule).
	ra := action.RawAction{Type: sub.Type, OutputNote: &n, Memo: sub.Memo}
	return []action.RawAction{ra}, pool, nil
}

func createBurnAuth(sub SubAction, pool []SpendableNote) ([]action.RawAction, []SpendableNote, error) {
	spent, newPool, err := selectAuth(pool, sub.SC, sub.AuthCommitment)
	if err != nil {
		return nil, pool, err
	}
	alpha, err := primitives.RandomScalar()
	if err != nil {
		return nil, pool, err
	}
	ra := action.RawAction{
		Type:          types.BurnAuth,
		SpentNote:     &spent.Note,
		SpentFVK:      &spent.FVK,
		SpentPosition: spent.Position,
		Alpha:         alpha,
		Memo:          sub.Memo,
	}
	return []action.RawAction{ra}, newPool, nil
}

// createFungibleSpend realizes TRANSFERFT/BURNFT/BURNFT2 per spec.md
// §4.7 step 2: select_fungible_notes, then emit one raw action per
// selected note, splitting only the last one's output into the
// recipient's requested portion plus change.
func createFungibleSpend(ctx context.Context, treeOracle merkle.TreeOracle, sub SubAction, pool []SpendableNote) ([]action.RawAction, []SpendableNote, error) {
	selected, newPool, _, err := selectFungibleNotes(pool, sub.D2, sub.SC, sub.Amount)
	if err != nil {
		return nil, pool, err
	}

	var out []action.RawAction
	running := uint64(0)
	for i, spent := range selected {
		path, err := merkle.FetchPath(ctx, treeOracle, spent.Position)
		if err != nil {
			return nil, pool, err
		}
		alpha, err := primitives.RandomScalar()
		if err != nil {
			return nil, pool, err
		}

		nf := spent.Note.Nullifier(spent.FVK)

		var bAmount, cAmount uint64
		if i == len(selected)-1 {
			bAmount = sub.Amount - running
			cAmount = spent.Note.D1 - bAmount
		} else {
			bAmount = spent.Note.D1
			cAmount = 0
		}
		running += spent.Note.D1

		var bMemo [note.MemoSize]byte
		copy(bMemo[:], sub.Memo)
		outputNote, err := note.New(0, sub.To, bAmount, spent.Note.D2, spent.Note.SC, 0, nf, bMemo)
		if err != nil {
			return nil, pool, err
		}

		var changeRho types.Hash
		if _, err := rand.Read(changeRho[:]); err != nil {
			return nil, pool, err
		}
		changeNote, err := note.New(0, spent.Note.Recipient, cAmount, spent.Note.D2, spent.Note.SC, 0, changeRho, [note.MemoSize]byte{})
		if err != nil {
			return nil, pool, err
		}

		ra := action.RawAction{
			Type:          sub.Type,
			SpentNote:     &spent.Note,
			SpentFVK:      &spent.FVK,
			SpentPosition: spent.Position,
			SpentPath:     path,
			Alpha:         alpha,
			OutputNote:    &outputNote,
			ChangeNote:    &changeNote,
			Memo:          sub.Memo,
		}
		out = append(out, ra)
	}
	return out, newPool, nil
}

func createNFTSpend(ctx context.Context, treeOracle merkle.TreeOracle, sub SubAction, pool []SpendableNote) ([]action.RawAction, []SpendableNote, error) {
	spent, newPool, err := selectNFT(pool, sub.D1, sub.D2, sub.SC)
	if err != nil {
		return nil, pool, err
	}
	path, err := merkle.FetchPath(ctx, treeOracle, spent.Position)
	if err != nil {
		return nil, pool, err
	}
	alpha, err := primitives.RandomScalar()
	if err != nil {
		return nil, pool, err
	}
	nf := spent.Note.Nullifier(spent.FVK)

	var memo [note.MemoSize]byte
	copy(memo[:], sub.Memo)
	outputNote, err := note.New(0, sub.To, spent.Note.D1, spent.Note.D2, spent.Note.SC, spent.Note.NFT, nf, memo)
	if err != nil {
		return nil, pool, err
	}

	ra := action.RawAction{
		Type:          sub.Type,
		SpentNote:     &spent.Note,
		SpentFVK:      &spent.FVK,
		SpentPosition: spent.Position,
		SpentPath:     path,
		Alpha:         alpha,
		OutputNote:    &outputNote,
		Memo:          sub.Memo,
	}
	return []action.RawAction{ra}, newPool, nil
}

// selectFungibleNotes implements spec.md §4.7's greedy-largest-first
// fungible selection: sort candidates by quantity descending, pick while
// the running sum stays below amount, fail (pool unchanged) if the
// candidate list is exhausted first.
func selectFungibleNotes(pool []SpendableNote, d2, sc, amount uint64) ([]SpendableNote, []SpendableNote, uint64, error) {
	var candidates []SpendableNote
	for _, n := range pool {
		if n.Note.D2 == d2 && n.Note.SC == sc && n.Note.NFT == 0 {
			candidates = append(candidates, n)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Note.D1 > candidates[j].Note.D1
	})

	var selected []SpendableNote
	var sum uint64
	for _, c := range candidates {
		if sum >= amount {
			break
		}
		selected = append(selected, c)
		sum += c.Note.D1
	}
	if sum < amount {
		return nil, pool, 0, ErrNoteSelectionFailed
	}

	remaining := removeSelected(pool, selected)
	return selected, remaining, sum - amount, nil
}

// selectNFT linear-scans for an exact (d1, d2, sc) match with nft != 0,
// first match wins (spec.md §4.7).
func selectNFT(pool []SpendableNote, d1, d2, sc uint64) (SpendableNote, []SpendableNote, error) {
	for i, n := range pool {
		if n.Note.D1 == d1 && n.Note.D2 == d2 && n.Note.SC == sc && n.Note.NFT != 0 {
			remaining := append(append([]SpendableNote{}, pool[:i]...), pool[i+1:]...)
			return n, remaining, nil
		}
	}
	return SpendableNote{}, pool, ErrNoteSelectionFailed
}

// selectAuth linear-scans for an (sc, commitment) match (spec.md §4.7).
func selectAuth(pool []SpendableNote, sc uint64, commitment types.Hash) (SpendableNote, []SpendableNote, error) {
	for i, n := range pool {
		if n.Note.SC == sc && n.Note.Commitment() == commitment {
			remaining := append(append([]SpendableNote{}, pool[:i]...), pool[i+1:]...)
			return n, remaining, nil
		}
	}
	return SpendableNote{}, pool, ErrNoteSelectionFailed
}

// removeSelected returns pool with every note in selected removed,
// compared by commitment (a note's unique identity).
func removeSelected(pool []SpendableNote, selected []SpendableNote) []SpendableNote {
	drop := make(map[types.Hash]bool, len(selected))
	for _, s := range selected {
		drop[s.Note.Commitment()] = true
	}
	var out []SpendableNote
	for _, n := range pool {
		if !drop[n.Note.Commitment()] {
			out = append(out, n)
		}
	}
	return out
}

// marshalProof concatenates a circuit.Proof's per-action byte slices with
// 4-byte little-endian length prefixes, giving the content-addressed
// store a single blob to hash and upload.
func marshalProof(p circuit.Proof) []byte {
	var out []byte
	for _, part := range p {
		var lenBuf [4]byte
		l := uint32(len(part))
		lenBuf[0] = byte(l)
		lenBuf[1] = byte(l >> 8)
		lenBuf[2] = byte(l >> 16)
		lenBuf[3] = byte(l >> 24)
		out = append(out, lenBuf[:]...)
		out = append(out, part...)
	}
	return out
}

func wireNotes(slots []bundle.EncryptedNoteSlot) []EncryptedNoteWire {
	out := make([]EncryptedNoteWire, len(slots))
	for i, s := range slots {
		out[i] = EncryptedNoteWire{
			ActionIndex:  s.ActionIndex,
			EphemeralKey: hexString(s.Ciphertext.EphemeralKey[:]),
			Enc:          hexString(s.Ciphertext.Enc[:]),
			Out:          hexString(s.Ciphertext.Out[:]),
		}
	}
	return out
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

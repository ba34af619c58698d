package builder

import (
	"testing"

	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/pkg/types"
)

func fungibleNote(quantity uint64, seed byte) SpendableNote {
	n := note.Note{D1: quantity, D2: 1, SC: 1}
	n.Rho[0] = seed
	n.Rseed[0] = seed
	return SpendableNote{Note: n}
}

func TestSelectFungibleNotesGreedyLargestFirst(t *testing.T) {
	pool := []SpendableNote{
		fungibleNote(5, 1),
		fungibleNote(3, 2),
		fungibleNote(2, 3),
	}

	selected, remaining, change, err := selectFungibleNotes(pool, 1, 1, 6)
	if err != nil {
		t.Fatalf("selectFungibleNotes: %v", err)
	}
	if len(selected) != 2 || selected[0].Note.D1 != 5 || selected[1].Note.D1 != 3 {
		t.Fatalf("selected = %+v, want [5, 3]", selected)
	}
	if change != 2 {
		t.Fatalf("change = %d, want 2", change)
	}
	if len(remaining) != 1 || remaining[0].Note.D1 != 2 {
		t.Fatalf("remaining = %+v, want [2]", remaining)
	}
}

func TestSelectFungibleNotesExhaustedLeavesPoolUnchanged(t *testing.T) {
	pool := []SpendableNote{
		fungibleNote(5, 1),
		fungibleNote(3, 2),
		fungibleNote(2, 3),
	}

	_, remaining, _, err := selectFungibleNotes(pool, 1, 1, 11)
	if err != ErrNoteSelectionFailed {
		t.Fatalf("err = %v, want ErrNoteSelectionFailed", err)
	}
	if len(remaining) != len(pool) {
		t.Fatalf("pool was mutated on failure: %+v", remaining)
	}
}

func TestSelectNFTLookup(t *testing.T) {
	ftA := fungibleNote(5, 1)
	ftB := fungibleNote(3, 2)
	auth := SpendableNote{Note: note.Note{D1: 1337, D2: 0, SC: 111, NFT: 1}}
	pool := []SpendableNote{ftA, ftB, auth}

	found, remaining, err := selectNFT(pool, 1337, 0, 111)
	if err != nil {
		t.Fatalf("selectNFT: %v", err)
	}
	if found.Note.D1 != 1337 || found.Note.NFT == 0 {
		t.Fatalf("found = %+v, want the auth note", found)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %+v, want the two FT notes", remaining)
	}
}

func TestSelectAuthByCommitment(t *testing.T) {
	auth := note.Note{D1: 1337, D2: 0, SC: 111, NFT: 1}
	cm := auth.Commitment()
	pool := []SpendableNote{{Note: auth}}

	found, remaining, err := selectAuth(pool, 111, cm)
	if err != nil {
		t.Fatalf("selectAuth: %v", err)
	}
	if found.Note.Commitment() != cm {
		t.Fatalf("found commitment mismatch")
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining = %+v, want empty", remaining)
	}
}

func TestScanRangeFindsContiguousSubRange(t *testing.T) {
	descriptors := make([]ActionDescriptor, 7)
	descriptors[2].SubActions = []SubAction{{Type: types.MintFT}}
	descriptors[4].SubActions = []SubAction{{Type: types.MintFT}}

	begin, end := scanRange(descriptors)
	if begin != 2 || end != 5 {
		t.Fatalf("scanRange = (%d, %d), want (2, 5)", begin, end)
	}
}

func TestScanRangeEmptyWhenNoSubActions(t *testing.T) {
	descriptors := make([]ActionDescriptor, 3)
	begin, end := scanRange(descriptors)
	if begin != end {
		t.Fatalf("scanRange = (%d, %d), want begin == end", begin, end)
	}
}

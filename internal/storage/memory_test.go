package storage

import (
	"context"
	"testing"

	"github.com/ccoin/core/internal/note"
)

func TestInMemoryWalletStoreSpendableNoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryWalletStore()

	n := note.Note{D1: 10, D2: 1, SC: 1}
	rec := SpendableNoteRecord{Note: n, Position: 5}

	if err := s.AddSpendableNote(ctx, rec); err != nil {
		t.Fatalf("AddSpendableNote: %v", err)
	}

	notes, err := s.ListSpendableNotes(ctx)
	if err != nil {
		t.Fatalf("ListSpendableNotes: %v", err)
	}
	if len(notes) != 1 || notes[0].Position != 5 {
		t.Fatalf("notes = %+v, want one record at position 5", notes)
	}

	if err := s.RemoveSpendableNote(ctx, n.Commitment()); err != nil {
		t.Fatalf("RemoveSpendableNote: %v", err)
	}
	notes, err = s.ListSpendableNotes(ctx)
	if err != nil {
		t.Fatalf("ListSpendableNotes: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("notes = %+v, want empty after removal", notes)
	}
}

func TestInMemoryWalletStoreSentNotes(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryWalletStore()

	n := note.Note{D1: 7, D2: 1, SC: 2}
	if err := s.AddSentNote(ctx, SentNoteRecord{Note: n}); err != nil {
		t.Fatalf("AddSentNote: %v", err)
	}

	sent, err := s.ListSentNotes(ctx)
	if err != nil {
		t.Fatalf("ListSentNotes: %v", err)
	}
	if len(sent) != 1 || sent[0].Note.D1 != 7 {
		t.Fatalf("sent = %+v, want one record with D1=7", sent)
	}
}

func TestInMemoryWalletStoreDiversifierCounterIncrements(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryWalletStore()

	first, err := s.NextDiversifierIndex(ctx)
	if err != nil {
		t.Fatalf("NextDiversifierIndex: %v", err)
	}
	second, err := s.NextDiversifierIndex(ctx)
	if err != nil {
		t.Fatalf("NextDiversifierIndex: %v", err)
	}
	if second != first+1 {
		t.Fatalf("second = %d, want %d", second, first+1)
	}

	count, err := s.DiversifierCount(ctx)
	if err != nil {
		t.Fatalf("DiversifierCount: %v", err)
	}
	if count != second {
		t.Fatalf("DiversifierCount() = %d, want %d", count, second)
	}
}

func TestInMemoryWalletStoreCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryWalletStore()

	cp := Checkpoint{NoteCount: 100, LeafCount: 42}
	if err := s.SetCheckpoint(ctx, cp); err != nil {
		t.Fatalf("SetCheckpoint: %v", err)
	}
	got, err := s.GetCheckpoint(ctx)
	if err != nil {
		t.Fatalf("GetCheckpoint: %v", err)
	}
	if got != cp {
		t.Fatalf("got = %+v, want %+v", got, cp)
	}
}

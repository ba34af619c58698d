// Package storage implements wallet persistence: the spendable-notes and
// sent-notes book, the diversifier counter, and the sync checkpoint a
// wallet needs to survive a process restart (spec.md §4.8). Grounded on
// the teacher's internal/storage.PostgresStore — table/connection-pool
// shape kept, schema changed from blockchain state to wallet note book.
package storage

import (
	"context"
	"errors"

	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/pkg/types"
)

// Common errors, matching the teacher's sentinel-per-package convention.
var (
	ErrNotFound     = errors.New("storage: not found")
	ErrDuplicate    = errors.New("storage: duplicate entry")
	ErrDBConnection = errors.New("storage: database connection error")
)

// SpendableNoteRecord is one note a wallet currently controls and could
// spend: the note itself and the leaf position it was committed at.
type SpendableNoteRecord struct {
	Note     note.Note
	Position uint64
}

// SentNoteRecord is one note a wallet previously sent, recovered via
// try_decrypt_as_sender, kept for history/display purposes.
type SentNoteRecord struct {
	Note note.Note
}

// Checkpoint is the wallet's last-seen ledger state (spec.md §4.8): the
// global note count and leaf count as of the last successful sync.
type Checkpoint struct {
	NoteCount uint64
	LeafCount uint64
}

// WalletStore is the persistence contract a wallet depends on. One
// Postgres-backed implementation is provided for production use and one
// in-memory implementation for tests, mirroring the teacher's
// TreeStore/NullifierStore dual in-memory/persistent pattern.
type WalletStore interface {
	AddSpendableNote(ctx context.Context, rec SpendableNoteRecord) error
	RemoveSpendableNote(ctx context.Context, commitment types.Hash) error
	ListSpendableNotes(ctx context.Context) ([]SpendableNoteRecord, error)

	AddSentNote(ctx context.Context, rec SentNoteRecord) error
	ListSentNotes(ctx context.Context) ([]SentNoteRecord, error)

	NextDiversifierIndex(ctx context.Context) (uint32, error)
	DiversifierCount(ctx context.Context) (uint32, error)

	GetCheckpoint(ctx context.Context) (Checkpoint, error)
	SetCheckpoint(ctx context.Context, cp Checkpoint) error
}

package storage

import (
	"context"
	"sync"

	"github.com/ccoin/core/pkg/types"
)

// InMemoryWalletStore is a WalletStore backed by plain Go maps, used in
// tests in place of PostgresStore.
type InMemoryWalletStore struct {
	mu         sync.Mutex
	spendable  map[types.Hash]SpendableNoteRecord
	sent       map[types.Hash]SentNoteRecord
	diverCount uint32
	checkpoint Checkpoint
}

// NewInMemoryWalletStore returns an empty in-memory WalletStore.
func NewInMemoryWalletStore() *InMemoryWalletStore {
	return &InMemoryWalletStore{
		spendable: make(map[types.Hash]SpendableNoteRecord),
		sent:      make(map[types.Hash]SentNoteRecord),
	}
}

func (s *InMemoryWalletStore) AddSpendableNote(ctx context.Context, rec SpendableNoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spendable[rec.Note.Commitment()] = rec
	return nil
}

func (s *InMemoryWalletStore) RemoveSpendableNote(ctx context.Context, commitment types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.spendable, commitment)
	return nil
}

func (s *InMemoryWalletStore) ListSpendableNotes(ctx context.Context) ([]SpendableNoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SpendableNoteRecord, 0, len(s.spendable))
	for _, rec := range s.spendable {
		out = append(out, rec)
	}
	return out, nil
}

func (s *InMemoryWalletStore) AddSentNote(ctx context.Context, rec SentNoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[rec.Note.Commitment()] = rec
	return nil
}

func (s *InMemoryWalletStore) ListSentNotes(ctx context.Context) ([]SentNoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentNoteRecord, 0, len(s.sent))
	for _, rec := range s.sent {
		out = append(out, rec)
	}
	return out, nil
}

func (s *InMemoryWalletStore) NextDiversifierIndex(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diverCount++
	return s.diverCount, nil
}

func (s *InMemoryWalletStore) DiversifierCount(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diverCount, nil
}

func (s *InMemoryWalletStore) GetCheckpoint(ctx context.Context) (Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoint, nil
}

func (s *InMemoryWalletStore) SetCheckpoint(ctx context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = cp
	return nil
}

var _ WalletStore = (*InMemoryWalletStore)(nil)

// Package wallet implements the wallet-facing surface spec.md §4.8
// describes only by interface: deriving addresses, syncing against the
// ledger oracle to recover owned notes, aggregating a spendable balance,
// and driving internal/builder to produce new transactions. Grounded on
// spec §4.8's prose contract; persistence shape borrowed from the
// teacher's internal/storage.PostgresStore connection-pool pattern
// (internal/storage.WalletStore is the concrete dependency here).
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ccoin/core/internal/builder"
	"github.com/ccoin/core/internal/circuit"
	"github.com/ccoin/core/internal/crypt"
	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/merkle"
	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/internal/oracle"
	"github.com/ccoin/core/internal/storage"
	"github.com/ccoin/core/pkg/types"
)

// ErrSyncFailed wraps a failure talking to the ledger oracle during sync.
var ErrSyncFailed = errors.New("wallet: sync failed")

// BalanceKey groups fungible notes by their denomination triple.
type BalanceKey struct {
	D2, SC uint64
}

// Wallet is a single-account, single-spending-key wallet: it derives
// addresses from one FullViewingKey, tracks spendable and sent notes in a
// WalletStore, and builds transactions via internal/builder.
type Wallet struct {
	mu sync.Mutex

	sk  keys.SpendingKey
	fvk keys.FullViewingKey

	store  storage.WalletStore
	ledger *oracle.LedgerOracle
	tree   merkle.TreeOracle
	blobs  oracle.BlobStore
	mgr    *circuit.Manager
}

// New constructs a wallet around an existing spending key and its
// collaborators.
func New(sk keys.SpendingKey, store storage.WalletStore, ledger *oracle.LedgerOracle, tree merkle.TreeOracle, blobs oracle.BlobStore, mgr *circuit.Manager) *Wallet {
	return &Wallet{
		sk:     sk,
		fvk:    keys.From(sk),
		store:  store,
		ledger: ledger,
		tree:   tree,
		blobs:  blobs,
		mgr:    mgr,
	}
}

// FullViewingKey returns the wallet's viewing key, shareable with an
// auditor per spec.md §3's viewing-key trust model.
func (w *Wallet) FullViewingKey() keys.FullViewingKey {
	return w.fvk
}

// NewAddress reserves the next diversifier index and derives a fresh
// address at the given scope (spec.md §4.8: "generates a new diversified
// address on demand").
func (w *Wallet) NewAddress(ctx context.Context, scope types.Scope) (types.Address, error) {
	idx, err := w.store.NextDiversifierIndex(ctx)
	if err != nil {
		return types.Address{}, fmt.Errorf("wallet: new address: %w", err)
	}
	return w.fvk.AddressAt(idx, scope), nil
}

// Sync polls the ledger oracle for notes committed since the last
// checkpoint and trial-decrypts each against every address this wallet
// has issued so far, at both scopes (spec.md §4.8's sync-loop contract).
// Matches are added to the spendable-note book; the checkpoint then
// advances to the ledger's reported state.
func (w *Wallet) Sync(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.ledger.GetGlobalState(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	cp, err := w.store.GetCheckpoint(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	if state.NoteCount <= cp.NoteCount {
		return 0, nil
	}

	entries, err := w.ledger.GetEncryptedNotes(ctx, cp.NoteCount, state.NoteCount)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	issued, err := w.store.DiversifierCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	found := 0
	for _, entry := range entries {
		n, ok := w.tryOwnNote(entry, issued)
		if !ok {
			continue
		}
		if err := w.store.AddSpendableNote(ctx, storage.SpendableNoteRecord{Note: n, Position: entry.Position}); err != nil {
			return found, fmt.Errorf("%w: %v", ErrSyncFailed, err)
		}
		found++
	}

	if err := w.store.SetCheckpoint(ctx, storage.Checkpoint{NoteCount: state.NoteCount, LeafCount: state.LeafCount}); err != nil {
		return found, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	return found, nil
}

// tryOwnNote trial-decrypts one ledger entry against every diversifier
// index issued so far, at both the external and internal scope.
func (w *Wallet) tryOwnNote(entry oracle.EncryptedNoteEntry, issued uint32) (note.Note, bool) {
	for idx := uint32(0); idx <= issued; idx++ {
		for _, scope := range []types.Scope{types.External, types.Internal} {
			addr := w.fvk.AddressAt(idx, scope)
			ivk := w.fvk.ToIvk(scope)
			n, ok := crypt.TryDecryptAsReceiver(ivk, &entry.Ciphertext, addr)
			if ok && n.Commitment() == entry.Commitment {
				return n, true
			}
		}
	}
	return note.Note{}, false
}

// Balance aggregates every spendable fungible note by (d2, sc) and lists
// the distinct NFTs currently held.
func (w *Wallet) Balance(ctx context.Context) (map[BalanceKey]uint64, []uint64, error) {
	notes, err := w.store.ListSpendableNotes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: balance: %w", err)
	}
	fungible := make(map[BalanceKey]uint64)
	var nfts []uint64
	for _, rec := range notes {
		if rec.Note.NFT != 0 {
			nfts = append(nfts, rec.Note.NFT)
			continue
		}
		key := BalanceKey{D2: rec.Note.D2, SC: rec.Note.SC}
		fungible[key] += rec.Note.D1
	}
	return fungible, nfts, nil
}

// Send builds a transaction from the wallet's current spendable-note pool
// via internal/builder, then updates the note book: consumed notes are
// removed, and produced notes are filed as spendable (if addressed to one
// of this wallet's own addresses) or sent (otherwise). Host-ledger
// broadcast and confirmation are out of scope (spec.md §1 Non-goals), so
// the note book is updated synchronously on a successful build rather
// than waiting on a confirmation callback.
func (w *Wallet) Send(ctx context.Context, descriptors []builder.ActionDescriptor) (builder.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	recs, err := w.store.ListSpendableNotes(ctx)
	if err != nil {
		return builder.Result{}, fmt.Errorf("wallet: send: %w", err)
	}
	pool := make([]builder.SpendableNote, len(recs))
	for i, rec := range recs {
		pool[i] = builder.SpendableNote{Note: rec.Note, FVK: w.fvk, Position: rec.Position}
	}

	ovk := w.fvk.ToOvk(types.External)
	result, remaining, err := builder.Build(ctx, w.mgr, w.tree, w.blobs, ovk, descriptors, pool)
	if err != nil {
		return builder.Result{}, err
	}

	kept := make(map[types.Hash]bool, len(remaining))
	for _, r := range remaining {
		kept[r.Note.Commitment()] = true
	}
	for _, rec := range recs {
		if !kept[rec.Note.Commitment()] {
			if err := w.store.RemoveSpendableNote(ctx, rec.Note.Commitment()); err != nil {
				return result, fmt.Errorf("wallet: send: %w", err)
			}
		}
	}

	for _, n := range result.OutputNotes {
		if _, owned := w.fvk.ScopeForAddress(n.Recipient); owned {
			if err := w.store.AddSpendableNote(ctx, storage.SpendableNoteRecord{Note: n}); err != nil {
				return result, fmt.Errorf("wallet: send: %w", err)
			}
			continue
		}
		if err := w.store.AddSentNote(ctx, storage.SentNoteRecord{Note: n}); err != nil {
			return result, fmt.Errorf("wallet: send: %w", err)
		}
	}

	return result, nil
}

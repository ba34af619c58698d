package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ccoin/core/internal/crypt"
	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/internal/oracle"
	"github.com/ccoin/core/internal/storage"
	"github.com/ccoin/core/pkg/types"
)

func newTestWallet(t *testing.T, srv *httptest.Server) (*Wallet, keys.FullViewingKey) {
	t.Helper()
	sk, err := keys.FromSeed([]byte("wallet test seed, long enough to derive a key from safely"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	fvk := keys.From(sk)
	store := storage.NewInMemoryWalletStore()
	ledger := oracle.NewLedgerOracle(nil, srv.URL)
	w := New(sk, store, ledger, nil, nil, nil)
	return w, fvk
}

func TestWalletNewAddressIncrementsDiversifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	w, _ := newTestWallet(t, srv)
	ctx := context.Background()

	a1, err := w.NewAddress(ctx, types.External)
	if err != nil {
		t.Fatalf("NewAddress: %v", err)
	}
	a2, err := w.NewAddress(ctx, types.External)
	if err != nil {
		t.Fatalf("NewAddress: %v", err)
	}
	if a1.Equal(a2) {
		t.Fatal("two successive addresses must differ")
	}
}

func TestWalletSyncRecoversOwnNote(t *testing.T) {
	sk, err := keys.FromSeed([]byte("wallet test seed, long enough to derive a key from safely"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	fvk := keys.From(sk)

	addr := fvk.AddressAt(0, types.External)
	var rho types.Hash
	rho[0] = 0x42
	var memo [note.MemoSize]byte
	n, err := note.New(0, addr, 100, 1, 7, 0, rho, memo)
	if err != nil {
		t.Fatalf("note.New: %v", err)
	}

	ovk := fvk.ToOvk(types.External)
	ct, err := crypt.Encrypt(n, ovk)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/state":
			json.NewEncoder(w).Encode(oracle.GlobalState{NoteCount: 1, LeafCount: 1})
		case "/notes":
			json.NewEncoder(w).Encode([]oracle.EncryptedNoteEntry{
				{Position: 0, Ciphertext: ct, Commitment: n.Commitment()},
			})
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	store := storage.NewInMemoryWalletStore()
	ledger := oracle.NewLedgerOracle(nil, srv.URL)
	wal := New(sk, store, ledger, nil, nil, nil)
	// Issue one diversifier index (the store hands out 1 first). Sync trials
	// indices 0 through the issued count, so index 0, where the note is
	// addressed, is covered.
	if _, err := wal.store.NextDiversifierIndex(context.Background()); err != nil {
		t.Fatalf("NextDiversifierIndex: %v", err)
	}

	found, err := wal.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if found != 1 {
		t.Fatalf("found = %d, want 1", found)
	}

	fungible, nfts, err := wal.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if len(nfts) != 0 {
		t.Fatalf("nfts = %v, want none", nfts)
	}
	key := BalanceKey{D2: 1, SC: 7}
	if fungible[key] != 100 {
		t.Fatalf("fungible[%+v] = %d, want 100", key, fungible[key])
	}
}

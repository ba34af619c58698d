package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/ccoin/core/pkg/types"
)

func TestHTTPTreeOracleGetHash(t *testing.T) {
	want := types.Hash{0xAB, 0xCD}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hash/7" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(getHashResponse{Hash: want.String(), Found: true})
	}))
	defer srv.Close()

	o := NewHTTPTreeOracle(nil, srv.URL)
	got, found, err := o.GetHash(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetHash: %v", err)
	}
	if !found || got != want {
		t.Fatalf("GetHash = (%v, %v), want (%v, true)", got, found, want)
	}

	// Second call must hit the cache, not the server: close it and retry.
	srv.Close()
	got2, found2, err := o.GetHash(context.Background(), 7)
	if err != nil || !found2 || got2 != want {
		t.Fatalf("cached GetHash = (%v, %v, %v), want (%v, true, nil)", got2, found2, err, want)
	}
}

func TestHTTPTreeOracleNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(getHashResponse{Found: false})
	}))
	defer srv.Close()

	o := NewHTTPTreeOracle(nil, srv.URL)
	_, found, err := o.GetHash(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetHash: %v", err)
	}
	if found {
		t.Fatal("found = true, want false")
	}
}

func TestLedgerOracleGetGlobalState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(GlobalState{NoteCount: 42, LeafCount: 42})
	}))
	defer srv.Close()

	l := NewLedgerOracle(nil, srv.URL)
	state, err := l.GetGlobalState(context.Background())
	if err != nil {
		t.Fatalf("GetGlobalState: %v", err)
	}
	if state.NoteCount != 42 || state.LeafCount != 42 {
		t.Fatalf("state = %+v, want {42 42}", state)
	}
}

func TestLedgerOracleGetEncryptedNotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.RawQuery; got != "from=1&to=3" {
			t.Fatalf("query = %q, want from=1&to=3", got)
		}
		json.NewEncoder(w).Encode([]EncryptedNoteEntry{{Position: 1}, {Position: 2}})
	}))
	defer srv.Close()

	l := NewLedgerOracle(nil, srv.URL)
	entries, err := l.GetEncryptedNotes(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("GetEncryptedNotes: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want 2", entries)
	}
}

func TestHTTPBlobStoreUploadDerivesContentURILocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %q, want POST", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"uri":"this-should-be-ignored"}`)
	}))
	defer srv.Close()

	store := NewHTTPBlobStore(nil, srv.URL)
	proof := []byte("a proof blob")
	uri, err := store.Upload(context.Background(), proof)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if want := ContentURI(proof); uri != want {
		t.Fatalf("uri = %q, want %q", uri, want)
	}
}

func TestContentURIHasIpfsPrefixAndCIDv1Header(t *testing.T) {
	uri := ContentURI([]byte("hello"))
	if len(uri) < 9 || uri[:8] != "ipfs://z" {
		t.Fatalf("uri = %q, want ipfs://z prefix", uri)
	}
	cid, err := base58.Decode(uri[8:])
	if err != nil {
		t.Fatalf("base58 decode of %q: %v", uri[8:], err)
	}
	if len(cid) != 4+32 || cid[0] != 0x01 || cid[1] != 0x55 || cid[2] != 0x12 || cid[3] != 0x20 {
		t.Fatalf("cid = %x, want 01551220 header followed by a 32-byte digest", cid)
	}
}

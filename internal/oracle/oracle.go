// Package oracle implements the HTTP-backed external-collaborator
// contracts of spec.md §6/§9: the Merkle-tree oracle, the ledger-state/
// encrypted-note oracle, and the content-addressed proof-blob store.
// Grounded on the teacher's internal/zkp/merkle.go TreeStore and
// internal/zkp/nullifier.go NullifierStore capability-interface pattern,
// generalized per spec.md §9's "trait-based async -> capability sets"
// design note into a single caching layer wrapping a plain net/http
// client (the teacher carries no HTTP client library of its own, and no
// pack repo contributes one worth adopting over stdlib for this role —
// see DESIGN.md).
package oracle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multihash"

	"github.com/ccoin/core/pkg/types"
)

// ErrOracle wraps any transport or decoding failure talking to the
// gateway, matching spec.md §7's OracleError kind ("callers may retry").
var ErrOracle = errors.New("oracle: request failed")

// HTTPTreeOracle is an HTTP-backed TreeOracle (internal/merkle) with a
// single in-memory caching layer for the lifetime of one transaction
// build, per spec.md §9's "persists fetched nodes for the duration of
// one transaction build" design note.
type HTTPTreeOracle struct {
	client  *http.Client
	baseURL string

	mu    sync.Mutex
	cache map[uint64]types.Hash
}

// NewHTTPTreeOracle constructs a tree oracle against the gateway's base
// URL (e.g. "https://gateway.example/tree").
func NewHTTPTreeOracle(client *http.Client, baseURL string) *HTTPTreeOracle {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTreeOracle{client: client, baseURL: baseURL, cache: make(map[uint64]types.Hash)}
}

type getHashResponse struct {
	Hash  string `json:"hash"`
	Found bool   `json:"found"`
}

// GetHash implements internal/merkle.TreeOracle.
func (o *HTTPTreeOracle) GetHash(ctx context.Context, arrayIndex uint64) (types.Hash, bool, error) {
	o.mu.Lock()
	if h, ok := o.cache[arrayIndex]; ok {
		o.mu.Unlock()
		return h, true, nil
	}
	o.mu.Unlock()

	var resp getHashResponse
	if err := o.getJSON(ctx, fmt.Sprintf("%s/hash/%d", o.baseURL, arrayIndex), &resp); err != nil {
		return types.Hash{}, false, err
	}
	if !resp.Found {
		return types.Hash{}, false, nil
	}
	h, err := decodeHexHash(resp.Hash)
	if err != nil {
		return types.Hash{}, false, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	o.mu.Lock()
	o.cache[arrayIndex] = h
	o.mu.Unlock()
	return h, true, nil
}

type getIndexResponse struct {
	Index uint64 `json:"index"`
	Found bool   `json:"found"`
}

// GetIndexByHash implements internal/merkle.TreeOracle.
func (o *HTTPTreeOracle) GetIndexByHash(ctx context.Context, hash types.Hash) (uint64, bool, error) {
	var resp getIndexResponse
	url := fmt.Sprintf("%s/index/%s", o.baseURL, hash.String())
	if err := o.getJSON(ctx, url, &resp); err != nil {
		return 0, false, err
	}
	return resp.Index, resp.Found, nil
}

func (o *HTTPTreeOracle) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOracle, err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOracle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway returned %d", ErrOracle, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrOracle, err)
	}
	return nil
}

func decodeHexHash(s string) (types.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != types.HashSize {
		return types.Hash{}, fmt.Errorf("malformed hash %q", s)
	}
	var h types.Hash
	copy(h[:], b)
	return h, nil
}

// GlobalState is the ledger's summary view: the current note count and
// leaf count, per spec.md §4.8's wallet-sync polling contract.
type GlobalState struct {
	NoteCount uint64 `json:"note_count"`
	LeafCount uint64 `json:"leaf_count"`
}

// EncryptedNoteEntry is one ciphertext observed on the ledger between two
// checkpoints, together with the leaf position it committed to.
type EncryptedNoteEntry struct {
	Position   uint64                          `json:"position"`
	Ciphertext types.TransmittedNoteCiphertext `json:"ciphertext"`
	Commitment types.Hash                      `json:"commitment"`
}

// LedgerOracle is the HTTP-backed ledger-state/encrypted-note
// collaborator of spec.md §4.8/§5 ("get_global_state", "get_encrypted_notes").
type LedgerOracle struct {
	client  *http.Client
	baseURL string
}

// NewLedgerOracle constructs a ledger oracle against the gateway's base URL.
func NewLedgerOracle(client *http.Client, baseURL string) *LedgerOracle {
	if client == nil {
		client = http.DefaultClient
	}
	return &LedgerOracle{client: client, baseURL: baseURL}
}

// GetGlobalState fetches the ledger's current note/leaf counts.
func (l *LedgerOracle) GetGlobalState(ctx context.Context) (GlobalState, error) {
	var state GlobalState
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/state", nil)
	if err != nil {
		return GlobalState{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return GlobalState{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GlobalState{}, fmt.Errorf("%w: gateway returned %d", ErrOracle, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return GlobalState{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	return state, nil
}

// GetEncryptedNotes fetches the ciphertexts the ledger recorded in the
// half-open checkpoint range [from, to).
func (l *LedgerOracle) GetEncryptedNotes(ctx context.Context, from, to uint64) ([]EncryptedNoteEntry, error) {
	var entries []EncryptedNoteEntry
	url := fmt.Sprintf("%s/notes?from=%d&to=%d", l.baseURL, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gateway returned %d", ErrOracle, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	return entries, nil
}

// BlobStore is the content-addressed proof store of spec.md §6:
// Upload(proof bytes) -> content URI.
type BlobStore interface {
	Upload(ctx context.Context, proof []byte) (string, error)
}

// HTTPBlobStore uploads proof blobs to a gateway and derives their
// content URI locally with ContentURI, rather than trusting a
// gateway-returned URI. The blob is uploaded and hashed as raw bytes; it
// is not hex-encoded first.
type HTTPBlobStore struct {
	client  *http.Client
	baseURL string
}

// NewHTTPBlobStore constructs a blob store against the gateway's base URL.
func NewHTTPBlobStore(client *http.Client, baseURL string) *HTTPBlobStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBlobStore{client: client, baseURL: baseURL}
}

// Upload stores the proof blob and returns its content URI.
func (s *HTTPBlobStore) Upload(ctx context.Context, proof []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/blob", bytes.NewReader(proof))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: gateway returned %d", ErrOracle, resp.StatusCode)
	}
	return ContentURI(proof), nil
}

// cidv1RawPrefix is the two-byte CIDv1 header (version 1, raw-binary
// multicodec) spec.md §6's "0x01_55" prefix names.
var cidv1RawPrefix = []byte{0x01, 0x55}

// ContentURI computes the content-addressed URI spec.md §6 mandates:
// "ipfs://z" + base58(0x01_55_12_20 || sha256(proof)) — a CIDv1 over a
// raw-binary multicodec wrapping a sha2-256 multihash of the proof bytes.
func ContentURI(proof []byte) string {
	digest := sha256.Sum256(proof)
	mh, err := multihash.Encode(digest[:], multihash.SHA2_256)
	if err != nil {
		// multihash.Encode only fails for unknown codes; SHA2_256 is
		// always registered.
		panic(err)
	}
	cid := append(append([]byte{}, cidv1RawPrefix...), mh...)
	return "ipfs://z" + base58.Encode(cid)
}

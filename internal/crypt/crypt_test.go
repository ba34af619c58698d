package crypt

import (
	"testing"

	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/note"
	"github.com/ccoin/core/pkg/types"
)

func testNote(t *testing.T, fvk keys.FullViewingKey) note.Note {
	t.Helper()
	addr := fvk.AddressAt(0, types.External)
	var rho types.Hash
	rho[0] = 0x07
	var memo [note.MemoSize]byte
	copy(memo[:], "hello")
	n, err := note.New(0, addr, 1, 2, 3, 0, rho, memo)
	if err != nil {
		t.Fatalf("note.New: %v", err)
	}
	return n
}

func TestEncryptTryDecryptAsReceiverRoundTrip(t *testing.T) {
	sk, err := keys.FromSeed([]byte("crypt receiver test seed, long enough for derivation"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	fvk := keys.From(sk)
	n := testNote(t, fvk)

	ovk := fvk.ToOvk(types.External)
	ct, err := Encrypt(n, ovk)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	ivk := fvk.ToIvk(types.External)
	got, ok := TryDecryptAsReceiver(ivk, &ct, n.Recipient)
	if !ok {
		t.Fatal("TryDecryptAsReceiver failed to recover the note")
	}
	if got.Commitment() != n.Commitment() {
		t.Fatal("recovered note commitment does not match original")
	}
	if got.D1 != n.D1 || got.D2 != n.D2 || got.SC != n.SC || got.NFT != n.NFT {
		t.Fatal("recovered note fields do not match original")
	}
}

func TestTryDecryptAsReceiverRejectsWrongKey(t *testing.T) {
	sk, err := keys.FromSeed([]byte("crypt receiver test seed, long enough for derivation"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	fvk := keys.From(sk)
	n := testNote(t, fvk)
	ovk := fvk.ToOvk(types.External)
	ct, err := Encrypt(n, ovk)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	otherSk, err := keys.FromSeed([]byte("a completely different seed that is also long enough"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	otherIvk := keys.From(otherSk).ToIvk(types.External)

	if _, ok := TryDecryptAsReceiver(otherIvk, &ct, n.Recipient); ok {
		t.Fatal("TryDecryptAsReceiver succeeded under the wrong viewing key")
	}
}

func TestTryDecryptAsSenderRoundTrip(t *testing.T) {
	sk, err := keys.FromSeed([]byte("crypt sender test seed, long enough for derivation!!"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	fvk := keys.From(sk)
	n := testNote(t, fvk)
	ovk := fvk.ToOvk(types.External)
	ct, err := Encrypt(n, ovk)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	cm := n.Commitment()
	got, ok := TryDecryptAsSender(ovk, &ct, cm, n.Recipient.D)
	if !ok {
		t.Fatal("TryDecryptAsSender failed to recover the note")
	}
	if got.Commitment() != cm {
		t.Fatal("recovered note commitment does not match ledger commitment")
	}
}

func TestTryDecryptAsSenderRejectsWrongCommitment(t *testing.T) {
	sk, err := keys.FromSeed([]byte("crypt sender test seed, long enough for derivation!!"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	fvk := keys.From(sk)
	n := testNote(t, fvk)
	ovk := fvk.ToOvk(types.External)
	ct, err := Encrypt(n, ovk)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	var wrongCommitment types.Hash
	wrongCommitment[0] = 0xff
	if _, ok := TryDecryptAsSender(ovk, &ct, wrongCommitment, n.Recipient.D); ok {
		t.Fatal("TryDecryptAsSender succeeded against a mismatched ledger commitment")
	}
}

package address

import (
	"testing"

	"github.com/decred/dcrd/bech32"

	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/pkg/types"
)

func testAddress(t *testing.T) types.Address {
	t.Helper()
	sk, err := keys.FromSeed([]byte("address codec test seed, long enough for derivation"), 0, 0)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	fvk := keys.From(sk)
	return fvk.AddressAt(3, types.External)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	addr := testAddress(t)

	encoded, err := Encode(addr)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded[:len(HRP)+1] != HRP+"1" {
		t.Fatalf("encoded address %q does not start with HRP %q", encoded, HRP)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("decoded address %+v does not match original %+v", decoded, addr)
	}
}

func TestDecodeRejectsWrongHRP(t *testing.T) {
	addr := testAddress(t)
	payload := addr.Bytes()

	converted, err := bech32.ConvertBits(payload[:], 8, 5, true)
	if err != nil {
		t.Fatalf("ConvertBits: %v", err)
	}
	bogus, err := bech32.EncodeM("zz", converted)
	if err != nil {
		t.Fatalf("EncodeM: %v", err)
	}
	if _, err := Decode(bogus); err != ErrInvalidAddress {
		t.Fatalf("Decode with wrong HRP: err = %v, want ErrInvalidAddress", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("not a bech32m string"); err == nil {
		t.Fatal("Decode accepted a malformed string")
	}
}

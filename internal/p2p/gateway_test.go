package p2p

import (
	"context"
	"testing"
)

func TestPeerGatewayStartAnnounceClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := NewPeerGateway(ctx, []string{"/ip4/127.0.0.1/tcp/0"})
	if err != nil {
		t.Fatalf("NewPeerGateway: %v", err)
	}
	defer pg.Close()

	if pg.ID() == "" {
		t.Fatal("ID() returned empty peer ID")
	}

	if err := pg.Announce(ctx, "http://gateway.example"); err != nil {
		t.Fatalf("Announce: %v", err)
	}

	if gws := pg.Gateways(); len(gws) != 0 {
		t.Fatalf("Gateways() = %v, want empty with no peers connected", gws)
	}
}

// Package p2p implements peer discovery for the oracle gateway edge. The
// shielded-pool library itself treats the tree/ledger/blob gateway as an
// external collaborator reached over HTTP (internal/oracle); this package
// only answers "which HTTP base URL should I use", by announcing and
// collecting gateway addresses over a libp2p pubsub topic. It carries no
// block, transaction, or consensus gossip — that belongs to the host
// ledger and is out of scope here.
package p2p

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
)

// GatewayTopic is the pubsub topic gateway operators announce their HTTP
// base URL on.
const GatewayTopic = "ccoin/zaction-gateway/v1"

// GatewayAnnouncement pairs a gateway's peer ID with its HTTP base URL.
// Announce publishes only the raw base-URL bytes, and the read loop stores
// them as received; this type is not used on the wire.
type GatewayAnnouncement struct {
	PeerID  string `json:"peer_id"`
	BaseURL string `json:"base_url"`
}

// PeerGateway discovers oracle/ledger/blob gateway HTTP endpoints over a
// libp2p pubsub topic, so a wallet need not be configured with a fixed
// gateway address.
type PeerGateway struct {
	host   host.Host
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription

	mu        sync.Mutex
	gateways  map[peer.ID]string
	cancelSub context.CancelFunc
}

// NewPeerGateway starts a libp2p host listening on the given multiaddrs and
// joins the gateway-discovery topic.
func NewPeerGateway(ctx context.Context, listenAddrs []string) (*PeerGateway, error) {
	priv, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, -1, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("p2p: generate identity: %w", err)
	}

	opts := []libp2p.Option{libp2p.Identity(priv)}
	if len(listenAddrs) > 0 {
		opts = append(opts, libp2p.ListenAddrStrings(listenAddrs...))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("p2p: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("p2p: create pubsub: %w", err)
	}

	topic, err := ps.Join(GatewayTopic)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("p2p: join topic: %w", err)
	}

	sub, err := topic.Subscribe()
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("p2p: subscribe: %w", err)
	}

	pg := &PeerGateway{
		host:     h,
		pubsub:   ps,
		topic:    topic,
		sub:      sub,
		gateways: make(map[peer.ID]string),
	}

	subCtx, cancel := context.WithCancel(ctx)
	pg.cancelSub = cancel
	go pg.readLoop(subCtx)

	return pg, nil
}

func (pg *PeerGateway) readLoop(ctx context.Context) {
	for {
		msg, err := pg.sub.Next(ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == pg.host.ID() {
			continue
		}
		pg.mu.Lock()
		pg.gateways[msg.ReceivedFrom] = string(msg.Data)
		pg.mu.Unlock()
	}
}

// Announce publishes this node's gateway HTTP base URL to the topic.
func (pg *PeerGateway) Announce(ctx context.Context, baseURL string) error {
	return pg.topic.Publish(ctx, []byte(baseURL))
}

// Gateways returns the set of gateway base URLs discovered so far.
func (pg *PeerGateway) Gateways() []string {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	out := make([]string, 0, len(pg.gateways))
	for _, url := range pg.gateways {
		out = append(out, url)
	}
	return out
}

// ID returns this node's peer ID.
func (pg *PeerGateway) ID() peer.ID {
	return pg.host.ID()
}

// Close shuts down the pubsub subscription and libp2p host.
func (pg *PeerGateway) Close() error {
	pg.cancelSub()
	pg.sub.Cancel()
	return pg.host.Close()
}

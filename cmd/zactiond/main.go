// zactiond is the daemon that keeps a wallet synced against a ledger
// gateway: it holds the wallet's spending key and polls the gateway for
// newly committed notes. It exposes no RPC interface.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ccoin/core/internal/address"
	"github.com/ccoin/core/internal/circuit"
	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/oracle"
	"github.com/ccoin/core/internal/p2p"
	"github.com/ccoin/core/internal/storage"
	"github.com/ccoin/core/internal/wallet"
	"github.com/ccoin/core/pkg/types"
)

const (
	version = "0.1.0"
	banner  = `
 _____  ____  _           _
|__  / |  _ \| |         | |
  / /  | | | | |_ __ ___ | |
 / /_  | |_| | | '_ \ _ \| |
/____| |____/|_| | | |_| |_|

zactiond v%s — shielded-pool wallet daemon
`
)

// Config holds daemon configuration.
type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	GatewayURL string
	ListenAddr string

	SeedFile string

	SyncInterval time.Duration
}

func main() {
	cfg := parseFlags()
	fmt.Printf(banner, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.DBHost, "db-host", "localhost", "PostgreSQL host")
	flag.IntVar(&cfg.DBPort, "db-port", 5432, "PostgreSQL port")
	flag.StringVar(&cfg.DBUser, "db-user", "ccoin", "PostgreSQL user")
	flag.StringVar(&cfg.DBPassword, "db-password", "", "PostgreSQL password")
	flag.StringVar(&cfg.DBName, "db-name", "ccoin_wallet", "PostgreSQL database name")

	flag.StringVar(&cfg.GatewayURL, "gateway", "http://127.0.0.1:8080", "ledger/tree/blob gateway base URL")
	flag.StringVar(&cfg.ListenAddr, "listen", "/ip4/0.0.0.0/tcp/9000", "libp2p listen address")

	flag.StringVar(&cfg.SeedFile, "seed-file", "./data/seed", "wallet seed file (created if absent)")

	flag.DurationVar(&cfg.SyncInterval, "sync-interval", 30*time.Second, "wallet sync poll interval")

	flag.Parse()
	return cfg
}

func run(ctx context.Context, cfg *Config) error {
	fmt.Println("Loading wallet seed...")
	seed, err := loadOrCreateSeed(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}
	sk, err := keys.FromSeed(seed, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to derive spending key: %w", err)
	}
	fvk := keys.From(sk)
	defaultAddr, err := address.Encode(fvk.AddressAt(0, types.External))
	if err != nil {
		return fmt.Errorf("failed to encode default address: %w", err)
	}
	fmt.Printf("Wallet key ready. Default address: %s\n", defaultAddr)

	fmt.Println("Connecting to database...")
	dbConfig := &storage.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  "disable",
		MaxConns: 20,
	}
	store, err := storage.NewPostgresStore(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()
	fmt.Println("Database connected.")

	fmt.Println("Setting up the action circuit...")
	mgr, err := circuit.Setup()
	if err != nil {
		return fmt.Errorf("failed to set up circuit: %w", err)
	}

	ledgerOracle := oracle.NewLedgerOracle(nil, cfg.GatewayURL)
	treeOracle := oracle.NewHTTPTreeOracle(nil, cfg.GatewayURL+"/tree")
	blobStore := oracle.NewHTTPBlobStore(nil, cfg.GatewayURL+"/blob")

	w := wallet.New(sk, store, ledgerOracle, treeOracle, blobStore, mgr)

	fmt.Println("Starting gateway peer discovery...")
	gw, err := p2p.NewPeerGateway(ctx, []string{cfg.ListenAddr})
	if err != nil {
		return fmt.Errorf("failed to start p2p gateway: %w", err)
	}
	defer gw.Close()
	if err := gw.Announce(ctx, cfg.GatewayURL); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to announce gateway: %v\n", err)
	}

	fmt.Println("zactiond started. Press Ctrl+C to stop.")
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Daemon stopped.")
			return nil
		case <-ticker.C:
			found, err := w.Sync(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "sync error: %v\n", err)
				continue
			}
			if found > 0 {
				fmt.Printf("sync: recovered %d new note(s)\n", found)
			}
		}
	}
}

func loadOrCreateSeed(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dirOf(path), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, seed, 0600); err != nil {
		return nil, err
	}
	return seed, nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

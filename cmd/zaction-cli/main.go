// zaction-cli is a command-line interface for a local shielded wallet:
// generating addresses, checking balances, and running a sync pass
// against a ledger gateway.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/ccoin/core/internal/address"
	"github.com/ccoin/core/internal/eosname"
	"github.com/ccoin/core/internal/keys"
	"github.com/ccoin/core/internal/oracle"
	"github.com/ccoin/core/internal/storage"
	"github.com/ccoin/core/internal/wallet"
	"github.com/ccoin/core/pkg/types"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("zaction-cli v%s\n", version)
	case "help":
		printUsage()
	case "wallet":
		if len(os.Args) < 3 {
			fmt.Println("Usage: zaction-cli wallet <new|address|balance|sync>")
			os.Exit(1)
		}
		cmdWallet(os.Args[2:])
	case "name":
		if len(os.Args) < 3 {
			fmt.Println("Usage: zaction-cli name <to-value|to-name> <arg>")
			os.Exit(1)
		}
		cmdName(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("zaction-cli - command-line interface for a shielded wallet")
	fmt.Println()
	fmt.Println("Usage: zaction-cli <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  version              Show version information")
	fmt.Println("  help                 Show this help message")
	fmt.Println("  wallet new           Generate and print a fresh wallet seed")
	fmt.Println("  wallet address       Derive a new diversified address")
	fmt.Println("  wallet balance       Show the spendable-note balance")
	fmt.Println("  wallet sync          Poll the gateway and recover new notes")
	fmt.Println("  name to-value <name> Convert an EOSIO-style account name to its u64 value")
	fmt.Println("  name to-name <value> Convert a u64 value back to its account name")
}

func cmdName(args []string) {
	switch args[0] {
	case "to-value":
		if len(args) < 2 {
			fmt.Println("Usage: zaction-cli name to-value <name>")
			return
		}
		fmt.Println(eosname.NameToValue(args[1]))
	case "to-name":
		if len(args) < 2 {
			fmt.Println("Usage: zaction-cli name to-name <value>")
			return
		}
		var value uint64
		if _, err := fmt.Sscanf(args[1], "%d", &value); err != nil {
			fmt.Fprintf(os.Stderr, "invalid value: %v\n", err)
			return
		}
		fmt.Println(eosname.ValueToName(value))
	default:
		fmt.Printf("Unknown name command: %s\n", args[0])
	}
}

func cmdWallet(args []string) {
	ctx := context.Background()

	if args[0] == "new" {
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate seed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%x\n", seed)
		return
	}

	w, closeStore, err := openWallet(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	switch args[0] {
	case "address":
		addr, err := w.NewAddress(ctx, types.External)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to derive address: %v\n", err)
			os.Exit(1)
		}
		encoded, err := address.Encode(addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode address: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(encoded)

	case "balance":
		fungible, nfts, err := w.Balance(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read balance: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Fungible balances:")
		for key, amount := range fungible {
			fmt.Printf("  d2=%d sc=%d: %d\n", key.D2, key.SC, amount)
		}
		fmt.Printf("NFTs held: %v\n", nfts)

	case "sync":
		found, err := w.Sync(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Recovered %d new note(s)\n", found)

	default:
		fmt.Printf("Unknown wallet command: %s\n", args[0])
	}
}

// openWallet wires a wallet against the configured gateway and a
// Postgres-backed note book shared with zactiond, falling back to an
// ephemeral in-memory book (with a warning) if the database is
// unreachable — handy for trying the CLI without standing up Postgres.
func openWallet(ctx context.Context) (*wallet.Wallet, func(), error) {
	gatewayURL := os.Getenv("ZACTION_GATEWAY")
	if gatewayURL == "" {
		gatewayURL = "http://127.0.0.1:8080"
	}
	seedFile := os.Getenv("ZACTION_SEED_FILE")
	if seedFile == "" {
		seedFile = "./data/seed"
	}

	seed, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, nil, fmt.Errorf("no seed found at %s (run 'wallet new' first and save it there): %w", seedFile, err)
	}
	sk, err := keys.FromSeed(seed, 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive spending key: %w", err)
	}

	ledgerOracle := oracle.NewLedgerOracle(nil, gatewayURL)

	dbCfg := storage.DefaultConfig()
	if h := os.Getenv("ZACTION_DB_HOST"); h != "" {
		dbCfg.Host = h
	}
	if pg, err := storage.NewPostgresStore(ctx, dbCfg); err == nil {
		return wallet.New(sk, pg, ledgerOracle, nil, nil, nil), pg.Close, nil
	}

	fmt.Fprintln(os.Stderr, "warning: could not reach Postgres, using an ephemeral in-memory note book")
	store := storage.NewInMemoryWalletStore()
	return wallet.New(sk, store, ledgerOracle, nil, nil, nil), func() {}, nil
}

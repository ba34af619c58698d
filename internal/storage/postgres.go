package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccoin/core/pkg/types"
)

// PostgresStore implements WalletStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Config holds database configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "ccoin",
		Password: "",
		Database: "ccoin_wallet",
		SSLMode:  "disable",
		MaxConns: 20,
	}
}

// NewPostgresStore creates a new PostgreSQL-backed WalletStore.
func NewPostgresStore(ctx context.Context, cfg *Config) (*PostgresStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Schema (created out of band by a migration, kept here for reference):
//
//	CREATE TABLE spendable_notes (
//		commitment  BYTEA PRIMARY KEY,
//		position    BIGINT NOT NULL,
//		header      BIGINT NOT NULL,
//		diversifier BYTEA NOT NULL,
//		pkd         BYTEA NOT NULL,
//		d1, d2, sc, nft BIGINT NOT NULL,
//		rho         BYTEA NOT NULL,
//		rseed       BYTEA NOT NULL,
//		memo        BYTEA NOT NULL
//	);
//	CREATE TABLE sent_notes (LIKE spendable_notes INCLUDING ALL);
//	CREATE TABLE wallet_state (
//		id                  BOOLEAN PRIMARY KEY DEFAULT true CHECK (id),
//		diversifier_counter BIGINT NOT NULL DEFAULT 0,
//		note_count          BIGINT NOT NULL DEFAULT 0,
//		leaf_count          BIGINT NOT NULL DEFAULT 0
//	);

// AddSpendableNote inserts a note into the spendable-note book.
func (s *PostgresStore) AddSpendableNote(ctx context.Context, rec SpendableNoteRecord) error {
	n := rec.Note
	cm := n.Commitment()
	query := `
		INSERT INTO spendable_notes (
			commitment, position, header, diversifier, pkd, d1, d2, sc, nft, rho, rseed, memo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (commitment) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		cm[:], rec.Position, n.Header, n.Recipient.D[:], n.Recipient.Pkd[:],
		n.D1, n.D2, n.SC, n.NFT, n.Rho[:], n.Rseed[:], n.Memo[:],
	)
	if err != nil {
		return fmt.Errorf("storage: add spendable note: %w", err)
	}
	return nil
}

// RemoveSpendableNote deletes a note from the spendable-note book, typically
// called once its spend has been observed confirmed on the ledger.
func (s *PostgresStore) RemoveSpendableNote(ctx context.Context, commitment types.Hash) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM spendable_notes WHERE commitment = $1`, commitment[:])
	if err != nil {
		return fmt.Errorf("storage: remove spendable note: %w", err)
	}
	return nil
}

// ListSpendableNotes returns every note currently in the spendable-note book.
func (s *PostgresStore) ListSpendableNotes(ctx context.Context) ([]SpendableNoteRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT position, header, diversifier, pkd, d1, d2, sc, nft, rho, rseed, memo
		FROM spendable_notes
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: list spendable notes: %w", err)
	}
	defer rows.Close()
	return scanNoteRows(rows)
}

// AddSentNote records a note this wallet previously sent, recovered via
// try_decrypt_as_sender.
func (s *PostgresStore) AddSentNote(ctx context.Context, rec SentNoteRecord) error {
	n := rec.Note
	cm := n.Commitment()
	query := `
		INSERT INTO sent_notes (
			commitment, position, header, diversifier, pkd, d1, d2, sc, nft, rho, rseed, memo
		) VALUES ($1, 0, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (commitment) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		cm[:], n.Header, n.Recipient.D[:], n.Recipient.Pkd[:],
		n.D1, n.D2, n.SC, n.NFT, n.Rho[:], n.Rseed[:], n.Memo[:],
	)
	if err != nil {
		return fmt.Errorf("storage: add sent note: %w", err)
	}
	return nil
}

// ListSentNotes returns the history of notes this wallet has sent.
func (s *PostgresStore) ListSentNotes(ctx context.Context) ([]SentNoteRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT position, header, diversifier, pkd, d1, d2, sc, nft, rho, rseed, memo
		FROM sent_notes
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: list sent notes: %w", err)
	}
	defer rows.Close()
	recs, err := scanNoteRows(rows)
	if err != nil {
		return nil, err
	}
	out := make([]SentNoteRecord, len(recs))
	for i, r := range recs {
		out[i] = SentNoteRecord{Note: r.Note}
	}
	return out, nil
}

// NextDiversifierIndex atomically reserves and returns the next diversifier
// index this wallet should use when generating a fresh address.
func (s *PostgresStore) NextDiversifierIndex(ctx context.Context) (uint32, error) {
	var next int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO wallet_state (id, diversifier_counter) VALUES (true, 1)
		ON CONFLICT (id) DO UPDATE SET diversifier_counter = wallet_state.diversifier_counter + 1
		RETURNING diversifier_counter
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("storage: next diversifier index: %w", err)
	}
	return uint32(next), nil
}

// DiversifierCount returns the number of diversifier indices issued so far,
// without reserving a new one.
func (s *PostgresStore) DiversifierCount(ctx context.Context) (uint32, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT diversifier_counter FROM wallet_state WHERE id = true`).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: diversifier count: %w", err)
	}
	return uint32(count), nil
}

// GetCheckpoint returns the wallet's last-seen ledger sync state.
func (s *PostgresStore) GetCheckpoint(ctx context.Context) (Checkpoint, error) {
	var cp Checkpoint
	err := s.pool.QueryRow(ctx, `SELECT note_count, leaf_count FROM wallet_state WHERE id = true`).
		Scan(&cp.NoteCount, &cp.LeafCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkpoint{}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("storage: get checkpoint: %w", err)
	}
	return cp, nil
}

// SetCheckpoint persists the wallet's last-seen ledger sync state.
func (s *PostgresStore) SetCheckpoint(ctx context.Context, cp Checkpoint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_state (id, note_count, leaf_count) VALUES (true, $1, $2)
		ON CONFLICT (id) DO UPDATE SET note_count = $1, leaf_count = $2
	`, cp.NoteCount, cp.LeafCount)
	if err != nil {
		return fmt.Errorf("storage: set checkpoint: %w", err)
	}
	return nil
}

func scanNoteRows(rows pgx.Rows) ([]SpendableNoteRecord, error) {
	var out []SpendableNoteRecord
	for rows.Next() {
		var rec SpendableNoteRecord
		var diversifier, pkd, rho, rseed, memo []byte
		if err := rows.Scan(
			&rec.Position, &rec.Note.Header, &diversifier, &pkd,
			&rec.Note.D1, &rec.Note.D2, &rec.Note.SC, &rec.Note.NFT,
			&rho, &rseed, &memo,
		); err != nil {
			return nil, fmt.Errorf("storage: scan note row: %w", err)
		}
		copy(rec.Note.Recipient.D[:], diversifier)
		copy(rec.Note.Recipient.Pkd[:], pkd)
		copy(rec.Note.Rho[:], rho)
		copy(rec.Note.Rseed[:], rseed)
		copy(rec.Note.Memo[:], memo)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ WalletStore = (*PostgresStore)(nil)

// Package journal persists processed ledger events and issued commitments in
// a local SQLite database.
//
// The journal stores event identities and commitment hashes only, never
// secrets or action values. It backs the dedupe layer across restarts and
// gives operators an audit view of what the gateway issued.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"knockoutgames/gateway/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_events (
    dedupe_key TEXT PRIMARY KEY,
    contract_id TEXT NOT NULL,
    event_name TEXT NOT NULL,
    height INTEGER NOT NULL,
    seen_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS commitments (
    game_kind TEXT NOT NULL,
    instance_id TEXT NOT NULL,
    round INTEGER NOT NULL,
    player TEXT NOT NULL,
    commitment TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (game_kind, instance_id, round, player)
);
`

// Store is a SQLite-backed journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the journal database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// SQLite allows a single writer; the gateway is low-write-volume.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MarkEvent records env and reports whether it was new. Satisfies
// ledger.EventStore.
func (s *Store) MarkEvent(ctx context.Context, env ledger.Envelope) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO processed_events (dedupe_key, contract_id, event_name, height, seen_at)
VALUES (?, ?, ?, ?, ?)`,
		env.DedupeKey, env.ContractID, env.Name, env.Height, s.now().Unix())
	if err != nil {
		return false, fmt.Errorf("mark event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark event rows: %w", err)
	}
	return n > 0, nil
}

// RecordCommitment stores the issued commitment hash for one
// (kind, instance, round, player). Re-recording the same key overwrites,
// which is safe because derivation is deterministic and the value cannot
// change for identical inputs.
func (s *Store) RecordCommitment(ctx context.Context, gameKind, instanceID string, round uint64, player, commitment string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO commitments (game_kind, instance_id, round, player, commitment, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		gameKind, instanceID, round, player, commitment, s.now().Unix())
	if err != nil {
		return fmt.Errorf("record commitment: %w", err)
	}
	return nil
}

// Commitment returns the recorded commitment hash, or "" if none exists.
func (s *Store) Commitment(ctx context.Context, gameKind, instanceID string, round uint64, player string) (string, error) {
	var out string
	err := s.db.QueryRowContext(ctx, `
SELECT commitment FROM commitments
WHERE game_kind = ? AND instance_id = ? AND round = ? AND player = ?`,
		gameKind, instanceID, round, player).Scan(&out)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read commitment: %w", err)
	}
	return out, nil
}

// EventCount reports how many distinct events have been journaled.
func (s *Store) EventCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

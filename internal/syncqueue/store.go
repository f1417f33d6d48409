package syncqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store is the terminal-local persistent record set, backed by a sqlite
// file. It is constructed explicitly and injected into the queue; there is
// no lazily-initialized global handle.
type Store struct {
	db *sqlx.DB
}

// OpenStore opens (or creates) the sqlite database at path and ensures the
// schema. Use ":memory:" for an ephemeral store in tests.
func OpenStore(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sync store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sync store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sync schema: %w", err)
	}
	return &Store{db: db}, nil
}

const schema = `
PRAGMA journal_mode = WAL;

CREATE TABLE IF NOT EXISTS pending_mutations(
  id          TEXT PRIMARY KEY,
  entity_type TEXT NOT NULL,
  op          TEXT NOT NULL CHECK (op IN ('create','update','delete')),
  payload     TEXT NOT NULL,
  created_at  INTEGER NOT NULL,
  synced      INTEGER NOT NULL DEFAULT 0,
  attempts    INTEGER NOT NULL DEFAULT 0,
  last_error  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_pending_unsynced ON pending_mutations(synced, created_at);
`

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO pending_mutations(id, entity_type, op, payload, created_at)
VALUES (?, ?, ?, ?, ?)
`, rec.ID, rec.EntityType, string(rec.Op), string(rec.Payload), rec.CreatedAt.UnixMilli())
	return err
}

type recordRow struct {
	ID         string `db:"id"`
	EntityType string `db:"entity_type"`
	Op         string `db:"op"`
	Payload    string `db:"payload"`
	CreatedAt  int64  `db:"created_at"`
	Synced     bool   `db:"synced"`
	Attempts   int    `db:"attempts"`
	LastError  string `db:"last_error"`
}

// Pending returns unsynced records oldest-first. FIFO order preserves
// create-before-update-before-delete causality for the same entity.
func (s *Store) Pending(ctx context.Context) ([]Record, error) {
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, `
SELECT id, entity_type, op, payload, created_at, synced, attempts, last_error
FROM pending_mutations
WHERE synced = 0
ORDER BY created_at, rowid
`); err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toRecord())
	}
	return recs, nil
}

// MarkSynced is the one-way pending -> synced transition.
func (s *Store) MarkSynced(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE pending_mutations SET synced = 1, last_error = '' WHERE id = ?
`, id)
	return err
}

// MarkFailed records the failure for visibility; the record stays pending.
func (s *Store) MarkFailed(ctx context.Context, id, message string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE pending_mutations SET attempts = attempts + 1, last_error = ? WHERE id = ?
`, message, id)
	return err
}

// Counts reports pending and synced record totals.
func (s *Store) Counts(ctx context.Context) (pending, synced int, err error) {
	err = s.db.QueryRowContext(ctx, `
SELECT
  count(*) FILTER (WHERE synced = 0),
  count(*) FILTER (WHERE synced = 1)
FROM pending_mutations
`).Scan(&pending, &synced)
	return pending, synced, err
}

// PurgeSynced garbage-collects synced records older than keep.
func (s *Store) PurgeSynced(ctx context.Context, keep time.Duration) (int64, error) {
	cutoff := time.Now().Add(-keep).UnixMilli()
	res, err := s.db.ExecContext(ctx, `
DELETE FROM pending_mutations WHERE synced = 1 AND created_at < ?
`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r recordRow) toRecord() Record {
	return Record{
		ID:         r.ID,
		EntityType: r.EntityType,
		Op:         Operation(r.Op),
		Payload:    []byte(r.Payload),
		CreatedAt:  time.UnixMilli(r.CreatedAt).UTC(),
		Synced:     r.Synced,
		Attempts:   r.Attempts,
		LastError:  r.LastError,
	}
}

package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteJournal is the default journal backend. Pass ":memory:" as the
// path for an ephemeral journal.
type SQLiteJournal struct {
	db *sql.DB
}

// created_at holds unix seconds; integer timestamps scan identically
// across the sqlite and postgres drivers.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	codec      TEXT NOT NULL DEFAULT 'none',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);
`

// OpenSQLite opens (or creates) a sqlite-backed journal at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: failed to open sqlite at %s: %w", path, err)
	}

	// The journal is written from one goroutine at a time; a single
	// connection avoids sqlite's multi-writer locking entirely.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: failed to initialize sqlite schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Append(ctx context.Context, name string, payload []byte) error {
	stored, codec := encodePayload(payload)
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (name, payload, codec, created_at) VALUES (?, ?, ?, ?)`,
		name, stored, codec, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("eventlog: sqlite append failed: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, name, payload, codec, created_at
		 FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("eventlog: sqlite query failed: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (j *SQLiteJournal) CountByName(ctx context.Context, name string) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("eventlog: sqlite count failed: %w", err)
	}
	return n, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			rec     Record
			stored  []byte
			codec   string
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &stored, &codec, &created); err != nil {
			return nil, fmt.Errorf("eventlog: row scan failed: %w", err)
		}
		payload, err := decodePayload(stored, codec)
		if err != nil {
			return nil, fmt.Errorf("eventlog: payload decode failed: %w", err)
		}
		rec.Payload = payload
		rec.At = time.Unix(created, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

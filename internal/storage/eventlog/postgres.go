package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// PostgresJournal stores the event journal in PostgreSQL, for deployments
// where several services read the same journal.
type PostgresJournal struct {
	db *sql.DB
}

// created_at holds unix seconds, same as the sqlite backend, so both
// drivers share one row scanner.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS events (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	payload    BYTEA NOT NULL,
	codec      TEXT NOT NULL DEFAULT 'none',
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);
`

// OpenPostgres connects to the given DSN and initializes the journal
// schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventlog: failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: failed to initialize postgres schema: %w", err)
	}
	return &PostgresJournal{db: db}, nil
}

func (j *PostgresJournal) Append(ctx context.Context, name string, payload []byte) error {
	stored, codec := encodePayload(payload)
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (name, payload, codec, created_at) VALUES ($1, $2, $3, $4)`,
		name, stored, codec, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("eventlog: postgres append failed: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, name, payload, codec, created_at
		 FROM events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("eventlog: postgres query failed: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (j *PostgresJournal) CountByName(ctx context.Context, name string) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE name = $1`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("eventlog: postgres count failed: %w", err)
	}
	return n, nil
}

func (j *PostgresJournal) Close() error {
	return j.db.Close()
}

var _ Journal = (*PostgresJournal)(nil)
var _ Journal = (*SQLiteJournal)(nil)

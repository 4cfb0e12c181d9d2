package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the last successful dashboard payload for a query key.
type Snapshot struct {
	Key        string    `db:"query_key"`
	Payload    []byte    `db:"payload"`
	CapturedAt time.Time `db:"captured_at"`
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, key string, payload []byte) error
	LoadSnapshot(ctx context.Context, key string) (Snapshot, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS dashboard_snapshots (
	query_key   TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS prediction_runs (
	id          BIGSERIAL PRIMARY KEY,
	kind        TEXT NOT NULL,
	country     TEXT NOT NULL,
	request     JSONB NOT NULL,
	result      JSONB,
	error       TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
);`

type PostgresRepository struct {
	DB *sqlx.DB
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresRepository{DB: db}, nil
}

func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveSnapshot(ctx context.Context, key string, payload []byte) error {
	const query = `
		INSERT INTO dashboard_snapshots (query_key, payload, captured_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (query_key) DO UPDATE
		SET payload = EXCLUDED.payload, captured_at = EXCLUDED.captured_at`

	if _, err := r.DB.ExecContext(ctx, query, key, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LoadSnapshot(ctx context.Context, key string) (Snapshot, error) {
	const query = `
		SELECT query_key, payload, captured_at
		FROM dashboard_snapshots
		WHERE query_key = $1`

	var snap Snapshot
	err := r.DB.GetContext(ctx, &snap, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

func (r *PostgresRepository) Close() error {
	return r.DB.Close()
}

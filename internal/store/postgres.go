package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/telescope-livewire/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer for entries.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// Store inserts entries in one batch. Entries whose UUID already exists are
// skipped by the unique constraint, so a retried flush does not duplicate rows.
func (p *PostgresStore) Store(ctx context.Context, entries []models.Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		content, err := json.Marshal(e.Content)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", e.UUID, err)
		}
		batch.Queue(`
			INSERT INTO telescope_entries(uuid, batch_id, type, content, created_at)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (uuid) DO NOTHING
		`, e.UUID, e.BatchID, e.Type, content, e.CreatedAt)
	}

	return p.pool.SendBatch(ctx, batch).Close()
}

const selectEntry = `SELECT sequence, uuid::text, batch_id::text, type, content, created_at FROM telescope_entries`

// List returns entries of q.Type newest first.
func (p *PostgresStore) List(ctx context.Context, q ListQuery) ([]models.Entry, error) {
	q = q.normalized()

	rows, err := p.pool.Query(ctx, selectEntry+`
		WHERE type=$1
		  AND ($2::bigint = 0 OR sequence < $2)
		ORDER BY sequence DESC
		LIMIT $3
	`, q.Type, q.BeforeSequence, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Find returns the entry with the given UUID.
func (p *PostgresStore) Find(ctx context.Context, uuid string) (models.Entry, error) {
	e, err := scanEntry(p.pool.QueryRow(ctx, selectEntry+` WHERE uuid::text=$1`, uuid))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	return e, err
}

func scanEntry(row pgx.Row) (models.Entry, error) {
	var (
		e       models.Entry
		content []byte
	)
	if err := row.Scan(&e.Sequence, &e.UUID, &e.BatchID, &e.Type, &content, &e.CreatedAt); err != nil {
		return models.Entry{}, err
	}
	if err := json.Unmarshal(content, &e.Content); err != nil {
		return models.Entry{}, fmt.Errorf("decode entry %s: %w", e.UUID, err)
	}
	return e, nil
}

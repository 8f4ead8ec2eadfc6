package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// Connection pool settings for PostgreSQL.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

// PostgresStore keeps history in PostgreSQL.
type PostgresStore struct {
	sqlStore
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to PostgreSQL and applies the migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.DSN == "" {
		return nil, errors.New("postgres store requires a DSN")
	}

	slog.Debug("creating Postgres store")

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("failed to open Postgres connection", "error", err)
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run postgres migrations: %w", err)
	}

	slog.Debug("Postgres store ready")

	return &PostgresStore{sqlStore{
		db:      db,
		backend: DSNPostgres,
		q: queries{
			upsertSession: `INSERT INTO sessions (id, mood, theme, pattern, looping, started_at, ended_at, cycles)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET mood = EXCLUDED.mood, theme = EXCLUDED.theme, pattern = EXCLUDED.pattern,
looping = EXCLUDED.looping, started_at = EXCLUDED.started_at, ended_at = EXCLUDED.ended_at, cycles = EXCLUDED.cycles`,
			listSessions: `SELECT id, mood, theme, pattern, looping, started_at, ended_at, cycles
FROM sessions ORDER BY started_at DESC LIMIT $1`,
			insertGeneration: `INSERT INTO generations (id, kind, mood, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
			listGenerations: `SELECT id, kind, mood, body, created_at
FROM generations ORDER BY created_at DESC LIMIT $1`,
			listGenerationsByKind: `SELECT id, kind, mood, body, created_at
FROM generations WHERE kind = $1 ORDER BY created_at DESC LIMIT $2`,
		},
	}}, nil
}

package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// DefaultSQLiteFile is used when NewSQLiteStore gets no DSN.
const DefaultSQLiteFile = "breathewise.db"

// SQLiteStore keeps history in a local SQLite file.
type SQLiteStore struct {
	sqlStore
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and migrates) a SQLite database at the DSN path,
// creating its directory when needed.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	cfg := Opts{DSN: DefaultSQLiteFile}
	for _, opt := range opts {
		opt(&cfg)
	}

	slog.Debug("creating SQLite store", "dsn", cfg.DSN)

	if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("failed to open SQLite database", "error", err, "dsn", cfg.DSN)
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run SQLite migrations: %w", err)
	}

	slog.Debug("SQLite store ready", "dsn", cfg.DSN)

	return &SQLiteStore{sqlStore{
		db:      db,
		backend: DSNSQLite,
		q: queries{
			upsertSession: `INSERT INTO sessions (id, mood, theme, pattern, looping, started_at, ended_at, cycles)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET mood = excluded.mood, theme = excluded.theme, pattern = excluded.pattern,
looping = excluded.looping, started_at = excluded.started_at, ended_at = excluded.ended_at, cycles = excluded.cycles`,
			listSessions: `SELECT id, mood, theme, pattern, looping, started_at, ended_at, cycles
FROM sessions ORDER BY started_at DESC LIMIT ?`,
			insertGeneration: `INSERT INTO generations (id, kind, mood, body, created_at) VALUES (?, ?, ?, ?, ?)`,
			listGenerations: `SELECT id, kind, mood, body, created_at
FROM generations ORDER BY created_at DESC LIMIT ?`,
			listGenerationsByKind: `SELECT id, kind, mood, body, created_at
FROM generations WHERE kind = ? ORDER BY created_at DESC LIMIT ?`,
		},
	}}, nil
}

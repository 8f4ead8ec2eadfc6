package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// queries holds the dialect specific statements for sqlStore.
type queries struct {
	upsertSession         string
	listSessions          string
	insertGeneration      string
	listGenerations       string
	listGenerationsByKind string
}

// sqlStore implements Store on top of database/sql. The SQLite and
// Postgres stores differ only in driver, migrations and placeholders.
type sqlStore struct {
	db      *sql.DB
	q       queries
	backend string
}

func (s *sqlStore) SaveSession(ctx context.Context, rec SessionRecord) error {
	slog.Debug("saving session", "backend", s.backend, "id", rec.ID, "mood", rec.Mood, "cycles", rec.Cycles)

	_, err := s.db.ExecContext(ctx, s.q.upsertSession,
		rec.ID, rec.Mood, rec.Theme, rec.Pattern, rec.Looping, rec.StartedAt.UTC(), rec.EndedAt.UTC(), rec.Cycles)
	if err != nil {
		slog.Error("failed to save session", "backend", s.backend, "id", rec.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (s *sqlStore) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q.listSessions, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.Mood, &rec.Theme, &rec.Pattern, &rec.Looping,
			&rec.StartedAt, &rec.EndedAt, &rec.Cycles); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return out, nil
}

func (s *sqlStore) SaveGeneration(ctx context.Context, rec GenerationRecord) error {
	slog.Debug("saving generation", "backend", s.backend, "id", rec.ID, "kind", rec.Kind, "mood", rec.Mood)

	_, err := s.db.ExecContext(ctx, s.q.insertGeneration,
		rec.ID, string(rec.Kind), rec.Mood, rec.Text, rec.CreatedAt.UTC())
	if err != nil {
		slog.Error("failed to save generation", "backend", s.backend, "id", rec.ID, "error", err)
		return fmt.Errorf("failed to save generation: %w", err)
	}

	return nil
}

func (s *sqlStore) ListGenerations(ctx context.Context, kind GenerationKind, limit int) ([]GenerationRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if kind == "" {
		rows, err = s.db.QueryContext(ctx, s.q.listGenerations, listLimit(limit))
	} else {
		rows, err = s.db.QueryContext(ctx, s.q.listGenerationsByKind, string(kind), listLimit(limit))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var (
			rec GenerationRecord
			k   string
		)
		if err := rows.Scan(&rec.ID, &k, &rec.Mood, &rec.Text, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		rec.Kind = GenerationKind(k)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	return out, nil
}

func (s *sqlStore) Close() error {
	slog.Debug("closing history store", "backend", s.backend)
	return s.db.Close()
}

// Package store keeps the history of breathing sessions and generated
// guidance. It has an in-memory backend and SQL backends for SQLite and
// PostgreSQL.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultListLimit is used when a list call passes a non-positive limit.
const DefaultListLimit = 20

// GenerationKind labels what was generated.
type GenerationKind string

const (
	GenerationStory      GenerationKind = "story"
	GenerationSuggestion GenerationKind = "suggestion"
	GenerationAudio      GenerationKind = "audio"
)

// ParseGenerationKind accepts "" (any kind) or one of the known kinds.
func ParseGenerationKind(s string) (GenerationKind, error) {
	switch k := GenerationKind(s); k {
	case "", GenerationStory, GenerationSuggestion, GenerationAudio:
		return k, nil
	default:
		return "", fmt.Errorf("unknown generation kind %q", s)
	}
}

// SessionRecord describes one breathing session after it ended.
type SessionRecord struct {
	ID        string    `json:"id"`
	Mood      string    `json:"mood"`
	Theme     string    `json:"theme"`
	Pattern   string    `json:"pattern"`
	Looping   bool      `json:"looping"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Cycles    int64     `json:"cycles"`
}

// GenerationRecord is one successful story, suggestion or audio script.
type GenerationRecord struct {
	ID        string         `json:"id"`
	Kind      GenerationKind `json:"kind"`
	Mood      string         `json:"mood"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Store persists session and generation history. Lists are newest first.
type Store interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	ListSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	SaveGeneration(ctx context.Context, rec GenerationRecord) error
	ListGenerations(ctx context.Context, kind GenerationKind, limit int) ([]GenerationRecord, error)
	Close() error
}

// Opts holds configuration for the SQL stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DSN types returned by DetectDSNType.
const (
	DSNMemory   = "memory"
	DSNSQLite   = "sqlite"
	DSNPostgres = "postgres"
)

// DetectDSNType classifies a DATABASE_URL value.
func DetectDSNType(dsn string) string {
	switch {
	case dsn == "":
		return DSNMemory
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return DSNPostgres
	default:
		return DSNSQLite
	}
}

// Open picks the backend for dsn: empty means in memory, a postgres URL or
// key/value DSN means PostgreSQL, anything else is a SQLite file path with an
// optional sqlite:// prefix.
func Open(dsn string) (Store, error) {
	switch DetectDSNType(dsn) {
	case DSNMemory:
		slog.Debug("using in-memory history store")
		return NewInMemoryStore(), nil
	case DSNPostgres:
		return NewPostgresStore(WithDSN(dsn))
	default:
		return NewSQLiteStore(WithDSN(strings.TrimPrefix(dsn, "sqlite://")))
	}
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}

	return limit
}

// InMemoryStore keeps history for the life of the process.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    []SessionRecord
	generations []GenerationRecord
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveSession(_ context.Context, rec SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.sessions, func(r SessionRecord) bool { return r.ID == rec.ID })
	if i >= 0 {
		s.sessions[i] = rec
		return nil
	}

	s.sessions = append(s.sessions, rec)

	return nil
}

func (s *InMemoryStore) ListSessions(_ context.Context, limit int) ([]SessionRecord, error) {
	s.mu.RLock()
	out := slices.Clone(s.sessions)
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b SessionRecord) int { return b.StartedAt.Compare(a.StartedAt) })

	return out[:min(len(out), listLimit(limit))], nil
}

func (s *InMemoryStore) SaveGeneration(_ context.Context, rec GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations = append(s.generations, rec)

	return nil
}

func (s *InMemoryStore) ListGenerations(_ context.Context, kind GenerationKind, limit int) ([]GenerationRecord, error) {
	s.mu.RLock()
	var out []GenerationRecord
	for _, rec := range s.generations {
		if kind == "" || rec.Kind == kind {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b GenerationRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return out[:min(len(out), listLimit(limit))], nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

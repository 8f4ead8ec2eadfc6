package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func session(id string, startOffset time.Duration) SessionRecord {
	return SessionRecord{
		ID:        id,
		Mood:      "anxious",
		Theme:     "ocean",
		Pattern:   "box",
		Looping:   true,
		StartedAt: base.Add(startOffset),
		EndedAt:   base.Add(startOffset + 45*time.Second),
		Cycles:    2,
	}
}

func generation(id string, kind GenerationKind, offset time.Duration) GenerationRecord {
	return GenerationRecord{
		ID:        id,
		Kind:      kind,
		Mood:      "tired",
		Text:      "text for " + id,
		CreatedAt: base.Add(offset),
	}
}

// backends returns a fresh store per backend under test.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()

	out := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewInMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(WithDSN(filepath.Join(t.TempDir(), "nested", "history.db")))
			require.NoError(t, err)
			return s
		},
	}

	if dsn := os.Getenv("BREATHEWISE_TEST_POSTGRES"); dsn != "" {
		out["postgres"] = func(t *testing.T) Store {
			s, err := NewPostgresStore(WithDSN(dsn))
			require.NoError(t, err)
			_, err = s.db.Exec("TRUNCATE sessions, generations")
			require.NoError(t, err)
			return s
		}
	}

	return out
}

func TestStore_Sessions(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			empty, err := s.ListSessions(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, empty)

			require.NoError(t, s.SaveSession(ctx, session("a", 0)))
			require.NoError(t, s.SaveSession(ctx, session("b", 2*time.Minute)))
			require.NoError(t, s.SaveSession(ctx, session("c", time.Minute)))

			got, err := s.ListSessions(ctx, 0)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []string{"b", "c", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})

			first := got[2]
			assert.Equal(t, "anxious", first.Mood)
			assert.Equal(t, "ocean", first.Theme)
			assert.Equal(t, "box", first.Pattern)
			assert.True(t, first.Looping)
			assert.EqualValues(t, 2, first.Cycles)
			assert.True(t, base.Equal(first.StartedAt), "started at %v", first.StartedAt)
			assert.True(t, base.Add(45*time.Second).Equal(first.EndedAt), "ended at %v", first.EndedAt)

			limited, err := s.ListSessions(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestStore_SaveSessionReplacesByID(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			rec := session("same", 0)
			require.NoError(t, s.SaveSession(ctx, rec))

			rec.Cycles = 5
			rec.Looping = false
			require.NoError(t, s.SaveSession(ctx, rec))

			got, err := s.ListSessions(ctx, 10)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.EqualValues(t, 5, got[0].Cycles)
			assert.False(t, got[0].Looping)
		})
	}
}

func TestStore_Generations(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			require.NoError(t, s.SaveGeneration(ctx, generation("s1", GenerationStory, 0)))
			require.NoError(t, s.SaveGeneration(ctx, generation("p1", GenerationSuggestion, time.Minute)))
			require.NoError(t, s.SaveGeneration(ctx, generation("s2", GenerationStory, 2*time.Minute)))
			require.NoError(t, s.SaveGeneration(ctx, generation("a1", GenerationAudio, 3*time.Minute)))

			all, err := s.ListGenerations(ctx, "", 0)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, "a1", all[0].ID)
			assert.Equal(t, GenerationAudio, all[0].Kind)

			stories, err := s.ListGenerations(ctx, GenerationStory, 0)
			require.NoError(t, err)
			require.Len(t, stories, 2)
			assert.Equal(t, "s2", stories[0].ID)
			assert.Equal(t, "s1", stories[1].ID)
			assert.Equal(t, "text for s1", stories[1].Text)
			assert.Equal(t, "tired", stories[1].Mood)
			assert.True(t, base.Equal(stories[1].CreatedAt))

			one, err := s.ListGenerations(ctx, GenerationStory, 1)
			require.NoError(t, err)
			assert.Len(t, one, 1)
		})
	}
}

func TestStore_SQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := NewSQLiteStore(WithDSN(path))
	require.NoError(t, err)
	require.NoError(t, s1.SaveSession(ctx, session("kept", 0)))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(WithDSN(path))
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].ID)
}

func TestDetectDSNType(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"", DSNMemory},
		{"postgres://user:pw@localhost/db", DSNPostgres},
		{"postgresql://localhost/db", DSNPostgres},
		{"host=localhost dbname=breathe sslmode=disable", DSNPostgres},
		{"history.db", DSNSQLite},
		{"sqlite:///tmp/history.db", DSNSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDSNType(tt.dsn))
		})
	}
}

func TestOpen(t *testing.T) {
	mem, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStore{}, mem)

	lite, err := Open("sqlite://" + filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer lite.Close()
	assert.IsType(t, &SQLiteStore{}, lite)
}

func TestNewPostgresStore_RequiresDSN(t *testing.T) {
	_, err := NewPostgresStore()
	require.Error(t, err)
}

func TestParseGenerationKind(t *testing.T) {
	for _, s := range []string{"", "story", "suggestion", "audio"} {
		k, err := ParseGenerationKind(s)
		require.NoError(t, err)
		assert.Equal(t, GenerationKind(s), k)
	}

	_, err := ParseGenerationKind("poem")
	require.Error(t, err)
}

package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MoodPatterns(t *testing.T) {
	c := catalog.Default()

	want := map[string]breath.PatternName{
		"anxious":    breath.PatternBox,
		"tired":      breath.PatternDefault,
		"energized":  breath.PatternTriangular,
		"reflective": breath.PatternBox,
	}

	assert.Equal(t, []string{"anxious", "tired", "energized", "reflective"}, c.MoodNames())

	for name, pattern := range want {
		m, ok := c.Mood(name)
		require.True(t, ok, name)
		assert.Equal(t, pattern, m.Pattern)
		assert.Equal(t, pattern, m.BreathingPattern().Name)
	}
}

func TestDefault_Themes(t *testing.T) {
	c := catalog.Default()

	forest, ok := c.Theme("forest")
	require.True(t, ok)
	assert.Equal(t, "Forest Pulse", forest.Label)
	assert.Equal(t, "https://picsum.photos/800/601", forest.Image)
	assert.Equal(t, "https://picsum.photos/1920/1081", forest.SessionImage)
	assert.Equal(t, "forest canopy", forest.SessionHint)
}

func TestResolve(t *testing.T) {
	c := catalog.Default()

	tests := []struct {
		name      string
		mood      string
		theme     string
		wantMood  string
		wantTheme string
	}{
		{name: "both known", mood: "tired", theme: "starlight", wantMood: "tired", wantTheme: "starlight"},
		{name: "missing values", wantMood: "anxious", wantTheme: "ocean"},
		{name: "unknown values", mood: "furious", theme: "desert", wantMood: "anxious", wantTheme: "ocean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, th := c.Resolve(tt.mood, tt.theme)
			assert.Equal(t, tt.wantMood, m.Name)
			assert.Equal(t, tt.wantTheme, th.Name)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		expectError string
	}{
		{
			name:        "unknown pattern",
			yaml:        "defaultMood: calm\ndefaultTheme: sky\nmoods: [{name: calm, pattern: square}]\nthemes: [{name: sky}]",
			expectError: "unknown breathing pattern",
		},
		{
			name:        "duplicate mood",
			yaml:        "defaultMood: calm\ndefaultTheme: sky\nmoods: [{name: calm, pattern: box}, {name: calm, pattern: box}]\nthemes: [{name: sky}]",
			expectError: "duplicate mood",
		},
		{
			name:        "bad default theme",
			yaml:        "defaultMood: calm\ndefaultTheme: sea\nmoods: [{name: calm, pattern: box}]\nthemes: [{name: sky}]",
			expectError: "default theme",
		},
		{
			name:        "empty",
			yaml:        "moods: []",
			expectError: "at least one mood",
		},
		{
			name:        "not yaml",
			yaml:        "moods: [",
			expectError: "failed to parse catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)
	assert.Len(t, c.Themes, 3)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	custom := "defaultMood: calm\ndefaultTheme: sky\nmoods: [{name: calm, emoji: x, pattern: triangular}]\nthemes: [{name: sky, label: Open Sky}]\n"
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o600))

	c, err = catalog.Load(path)
	require.NoError(t, err)

	m, th := c.Resolve("", "")
	assert.Equal(t, breath.PatternTriangular, m.Pattern)
	assert.Equal(t, "Open Sky", th.Label)

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// Package catalog holds the moods and scene themes offered to the user and
// the breathing pattern each mood maps to.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/pkg/collections"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Mood is a selectable mood and the breathing pattern used for it.
type Mood struct {
	Name    string             `yaml:"name" json:"name"`
	Emoji   string             `yaml:"emoji" json:"emoji"`
	Pattern breath.PatternName `yaml:"pattern" json:"pattern"`
}

// Theme is a background scene. Image and Hint are used on the home page,
// SessionImage and SessionHint behind the running session.
type Theme struct {
	Name         string `yaml:"name" json:"name"`
	Label        string `yaml:"label" json:"label"`
	Image        string `yaml:"image" json:"image"`
	Hint         string `yaml:"hint" json:"hint"`
	SessionImage string `yaml:"sessionImage" json:"sessionImage"`
	SessionHint  string `yaml:"sessionHint" json:"sessionHint"`
}

// Catalog is the full set of moods and themes.
type Catalog struct {
	DefaultMood  string  `yaml:"defaultMood" json:"defaultMood"`
	DefaultTheme string  `yaml:"defaultTheme" json:"defaultTheme"`
	Moods        []Mood  `yaml:"moods" json:"moods"`
	Themes       []Theme `yaml:"themes" json:"themes"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}

	return c
}

// Load reads a catalog file. An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks that every mood maps to a known pattern and that the
// defaults name real entries.
func (c *Catalog) Validate() error {
	if len(c.Moods) == 0 || len(c.Themes) == 0 {
		return errors.New("catalog needs at least one mood and one theme")
	}

	seen := map[string]bool{}
	for _, m := range c.Moods {
		if m.Name == "" {
			return errors.New("mood with empty name")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate mood %q", m.Name)
		}
		seen[m.Name] = true

		if _, err := breath.Lookup(string(m.Pattern)); err != nil {
			return fmt.Errorf("mood %q: %w", m.Name, err)
		}
	}

	if _, ok := c.Mood(c.DefaultMood); !ok {
		return fmt.Errorf("default mood %q is not in the catalog", c.DefaultMood)
	}

	if _, ok := c.Theme(c.DefaultTheme); !ok {
		return fmt.Errorf("default theme %q is not in the catalog", c.DefaultTheme)
	}

	return nil
}

// Mood looks up a mood by name.
func (c *Catalog) Mood(name string) (Mood, bool) {
	return collections.Find(c.Moods, func(m Mood) bool { return m.Name == name })
}

// Theme looks up a theme by name.
func (c *Catalog) Theme(name string) (Theme, bool) {
	return collections.Find(c.Themes, func(t Theme) bool { return t.Name == name })
}

// Resolve maps query values to a mood and theme, falling back to the
// defaults for missing or unknown names.
func (c *Catalog) Resolve(mood, theme string) (Mood, Theme) {
	m, ok := c.Mood(mood)
	if !ok {
		m, _ = c.Mood(c.DefaultMood)
	}

	t, ok := c.Theme(theme)
	if !ok {
		t, _ = c.Theme(c.DefaultTheme)
	}

	return m, t
}

// MoodNames lists mood names in catalog order.
func (c *Catalog) MoodNames() []string {
	return collections.Apply(c.Moods, func(m Mood) string { return m.Name })
}

// BreathingPattern returns the pattern for the mood. Moods in a validated
// catalog always name a known pattern.
func (m Mood) BreathingPattern() breath.Pattern {
	return breath.MustLookup(m.Pattern)
}

package checklist_test

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/alkime/breathewise/internal/tui/components/checklist"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestChecklist(t *testing.T) {
	m := checklist.New(spinner.Dot, "Preparing", "Mood: tired", "[q] quit", "story", "suggestion", "audio")

	t.Run("initial state", func(t *testing.T) {
		assert.Equal(t, "Preparing", m.Title)
		assert.Len(t, m.Items, 3)
		assert.False(t, m.Finished())
		assert.Equal(t, spinner.Dot, m.Spinner.Spinner)
	})

	v0 := m.View()
	t.Run("view output", func(t *testing.T) {
		assert.Contains(t, v0, "Preparing")
		assert.Contains(t, v0, "Mood: tired")
		assert.Contains(t, v0, "[q] quit")
		assert.Contains(t, v0, "… story")
		assert.Contains(t, v0, spinner.Dot.Frames[0])
	})

	t.Run("spinner ticks", func(t *testing.T) {
		m, _ = m.Update(spinner.TickMsg{})
		assert.Contains(t, m.View(), spinner.Dot.Frames[1])
	})

	t.Run("items finish independently", func(t *testing.T) {
		m.Set("story", checklist.Done, "")
		m.Set("audio", checklist.Failed, "quota exceeded")
		m.Set("unknown", checklist.Done, "")
		assert.False(t, m.Finished())

		v := m.View()
		assert.Contains(t, v, "✓ story")
		assert.Contains(t, v, "✗ audio (quota exceeded)")

		m.Set("suggestion", checklist.Skipped, "")
		assert.True(t, m.Finished())
		assert.Contains(t, m.View(), "- suggestion")
	})
}

package tui_test

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/catalog"
	"github.com/alkime/breathewise/internal/guide"
	"github.com/alkime/breathewise/internal/tui"
	"github.com/alkime/breathewise/internal/tui/workflow"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type stubPreparer struct{}

func (stubPreparer) Story(context.Context, string) string      { return "Waves fold over sand." }
func (stubPreparer) Suggestion(context.Context, string) string { return "Unclench your jaw." }
func (stubPreparer) Audio(context.Context, string, breath.Pattern) (guide.Guidance, error) {
	return guide.Guidance{}, guide.ErrAudioUnavailable
}

func waitFor(t *testing.T, tm *teatest.TestModel, substrs ...string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(buf []byte) bool {
		for _, s := range substrs {
			if !bytes.Contains(buf, []byte(s)) {
				return false
			}
		}
		return true
	}, teatest.WithCheckInterval(50*time.Millisecond), teatest.WithDuration(3*time.Second))
}

func TestTUI_PrepareThenBreathe(t *testing.T) {
	var (
		started   atomic.Bool
		cancelled atomic.Bool
	)

	events := make(chan breath.Event, 4)
	pattern := breath.MustLookup(breath.PatternTriangular)

	briefing := &workflow.Briefing{
		Mood:    catalog.Mood{Name: "stressed", Pattern: breath.PatternTriangular},
		Pattern: pattern,
	}

	m := tui.New(context.Background(), tui.Config{
		Briefing: briefing,
		Preparer: stubPreparer{},
		Controls: workflow.SessionControls{
			Events: events,
			Start: func(b *workflow.Briefing) {
				started.Store(true)
				ph := b.Pattern.Phases[0]
				events <- breath.Event{
					Cause:     "start",
					Pattern:   b.Pattern.Name,
					Phase:     ph,
					Countdown: breath.Countdown(ph),
					Animation: breath.Targets(ph),
				}
			},
		},
		Audio:  true,
		Cancel: func() { cancelled.Store(true) },
	})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 60))

	waitFor(t, tm, "Preparing", "Breathing", "Triangular Breathing", "Inhale", "Waves fold over sand.",
		"guidance unavailable")
	assert.True(t, started.Load())
	assert.False(t, cancelled.Load())

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	assert.True(t, cancelled.Load())
	require.ErrorIs(t, briefing.AudioErr, guide.ErrAudioUnavailable)
	assert.Equal(t, "Unclench your jaw.", briefing.Suggestion)
}

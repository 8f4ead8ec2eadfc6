// Package tui runs a breathing session in the terminal: a preparing phase
// that gathers the story, suggestion and spoken guidance, followed by the
// breathing phase itself.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/breathewise/internal/tui/components/phases"
	"github.com/alkime/breathewise/internal/tui/workflow"
)

// KeyMap holds the bindings that work in every phase.
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the global key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
	}
}

// Config wires the TUI to the content generator and the running session.
type Config struct {
	Briefing *workflow.Briefing
	Preparer workflow.Preparer
	Controls workflow.SessionControls
	// Audio enables the spoken guidance task.
	Audio bool
	// Cancel is called when the user quits. It should stop the session.
	Cancel context.CancelFunc
}

type model struct {
	config Config
	keys   KeyMap
	phases phases.Model
}

// New creates the root model.
func New(ctx context.Context, config Config) tea.Model {
	return &model{
		config: config,
		keys:   DefaultKeyMap(),
		phases: phases.New([]phases.Phase{
			phases.NewPhase("Preparing",
				workflow.NewPreparePhase(ctx, config.Preparer, config.Briefing, config.Audio)),
			phases.NewPhase("Breathing",
				workflow.NewBreathePhase(config.Controls, config.Briefing)),
		}).WithBreadcrumb(),
	}
}

func (m *model) Init() tea.Cmd {
	return m.phases.Init()
}

func (m *model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := teaMsg.(tea.KeyMsg); ok {
		if key.Matches(km, m.keys.ForceQuit) || key.Matches(km, m.keys.Quit) {
			if m.config.Cancel != nil {
				m.config.Cancel()
			}

			return m, tea.Quit
		}
	}

	updated, cmd := m.phases.Update(teaMsg)
	m.phases = updated.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

	return m, cmd
}

func (m *model) View() string {
	return m.phases.View() + "\n"
}

// Run blocks until the user quits or the session stops.
func Run(ctx context.Context, config Config, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)

	if _, err := tea.NewProgram(New(ctx, config), opts...).Run(); err != nil &&
		!errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run session TUI: %w", err)
	}

	return nil
}

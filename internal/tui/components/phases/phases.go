// Package phases is a container that shows one child model at a time and
// moves between them on NextPhaseMsg and PrevPhaseMsg.
package phases

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/breathewise/internal/tui/style"
)

// NextPhaseMsg signals the phases container to advance to the next phase.
type NextPhaseMsg struct{}

// PrevPhaseMsg signals the phases container to go back to the previous phase.
type PrevPhaseMsg struct{}

// NextPhaseCmd advances the container.
func NextPhaseCmd() tea.Msg { return NextPhaseMsg{} }

type Phase struct {
	Name string
	mdl  tea.Model
}

func (p Phase) Init() tea.Cmd {
	return p.mdl.Init()
}

func (p Phase) Update(msg tea.Msg) (Phase, tea.Cmd) {
	updatedMdl, cmd := p.mdl.Update(msg)
	p.mdl = updatedMdl
	return p, cmd
}

func (p Phase) View() string {
	return p.mdl.View()
}

func NewPhase(name string, mdl tea.Model) Phase {
	return Phase{
		Name: name,
		mdl:  mdl,
	}
}

// Model runs its phases in order. Window size messages reach every phase
// so a phase entered later already knows the terminal size.
type Model struct {
	phases     []Phase
	curr       int
	breadcrumb bool
}

func New(phases []Phase) Model {
	return Model{phases: phases}
}

// WithBreadcrumb renders a "one › two" line above the current phase.
func (m Model) WithBreadcrumb() Model {
	m.breadcrumb = true
	return m
}

func (m Model) currentPhase() Phase {
	return m.phases[m.curr]
}

func (m Model) Init() tea.Cmd {
	return m.currentPhase().Init()
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch teaMsg.(type) {
	case NextPhaseMsg:
		if m.curr >= len(m.phases)-1 {
			return m, nil
		}
		m.curr++
		return m, m.currentPhase().Init()

	case PrevPhaseMsg:
		if m.curr <= 0 {
			return m, nil
		}
		m.curr--
		return m, m.currentPhase().Init()

	case tea.WindowSizeMsg:
		cmds := make([]tea.Cmd, 0, len(m.phases))
		for i := range m.phases {
			var cmd tea.Cmd
			m.phases[i], cmd = m.phases[i].Update(teaMsg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	ph, cmd := m.currentPhase().Update(teaMsg)
	m.phases[m.curr] = ph

	return m, cmd
}

func (m Model) View() string {
	if !m.breadcrumb {
		return m.currentPhase().View()
	}

	crumbs := make([]string, len(m.phases))
	for i, p := range m.phases {
		if i == m.curr {
			crumbs[i] = style.ActiveCrumb.Render(p.Name)
		} else {
			crumbs[i] = style.Crumb.Render(p.Name)
		}
	}

	return strings.Join(crumbs, style.Crumb.Render(" › ")) + "\n\n" + m.currentPhase().View()
}

// CurrentPhaseName returns the name of the current phase.
func (m Model) CurrentPhaseName() string {
	return m.currentPhase().Name
}

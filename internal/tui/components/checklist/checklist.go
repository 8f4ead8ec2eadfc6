// Package checklist shows a spinner with a title above a list of tasks
// that finish independently.
package checklist

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/breathewise/internal/tui/style"
)

// State is the progress of one task.
type State int

const (
	Pending State = iota
	Done
	Failed
	Skipped
)

// Item is one line of the checklist.
type Item struct {
	Label string
	State State
	// Note is shown after the label, e.g. an error summary.
	Note string
}

// Model displays a spinner, title, subtitle and the task lines.
type Model struct {
	Spinner  spinner.Model
	Title    string
	Subtitle string
	Help     string
	Items    []Item
}

// New creates a checklist with every item pending.
func New(s spinner.Spinner, title, subtitle, help string, labels ...string) Model {
	sp := spinner.New()
	sp.Spinner = s

	items := make([]Item, len(labels))
	for i, l := range labels {
		items[i] = Item{Label: l}
	}

	return Model{
		Spinner:  sp,
		Title:    title,
		Subtitle: subtitle,
		Help:     help,
		Items:    items,
	}
}

// Set updates the item with label. Unknown labels are ignored.
func (m *Model) Set(label string, state State, note string) {
	for i := range m.Items {
		if m.Items[i].Label == label {
			m.Items[i].State = state
			m.Items[i].Note = note
		}
	}
}

// Finished reports whether no item is pending.
func (m Model) Finished() bool {
	for _, it := range m.Items {
		if it.State == Pending {
			return false
		}
	}

	return true
}

// Init returns the initial command for the spinner.
func (m Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update handles spinner tick messages.
func (m Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(tickMsg)

		return m, cmd
	}

	return m, nil
}

// View renders the checklist.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(m.Title))
	sb.WriteString("\n\n")

	if m.Subtitle != "" {
		sb.WriteString(style.Subtitle.Render(m.Subtitle))
		sb.WriteString("\n\n")
	}

	for _, it := range m.Items {
		sb.WriteString("  ")
		sb.WriteString(m.marker(it.State))
		sb.WriteString(" ")
		sb.WriteString(it.Label)
		if it.Note != "" {
			sb.WriteString(" ")
			sb.WriteString(style.Muted.Render("(" + it.Note + ")"))
		}
		sb.WriteString("\n")
	}

	if m.Help != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Help.Render(m.Help))
	}

	return sb.String()
}

func (m Model) marker(s State) string {
	switch s {
	case Done:
		return style.Success.Render("✓")
	case Failed:
		return style.Error.Render("✗")
	case Skipped:
		return style.Muted.Render("-")
	default:
		return style.Muted.Render("…")
	}
}

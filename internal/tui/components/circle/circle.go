// Package circle draws the two breathing circles as shaded text and eases
// them between the animation targets of consecutive phases.
package circle

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/tui/style"
)

// Shade characters from empty to solid.
const shades = " ·░▒▓█"

// frameInterval redraws at about 20 FPS.
const frameInterval = 50 * time.Millisecond

// TickMsg triggers a circle redraw.
type TickMsg struct{}

// rest is the exhaled shape shown before the first phase.
var rest = breath.Animation{OuterScale: 0.7, OuterOpacity: 1, InnerScale: 0.6, InnerOpacity: 0.9}

// Model renders the circles into width x height cells. Terminal cells are
// roughly twice as tall as they are wide, so horizontal distances are
// halved.
type Model struct {
	width, height int
	from, to      breath.Animation
	since         time.Time
	now           func() time.Time
}

// New creates a circle at rest.
func New(width, height int) Model {
	return Model{
		width:  max(width, 2),
		height: max(height, 1),
		from:   rest,
		to:     rest,
		now:    time.Now,
	}
}

// WithClock replaces the time source, mainly for tests.
func (m Model) WithClock(now func() time.Time) Model {
	m.now = now
	m.since = now()
	return m
}

// Resize changes the drawing area.
func (m Model) Resize(width, height int) Model {
	m.width = max(width, 2)
	m.height = max(height, 1)
	return m
}

// Target starts easing from the current shape towards a.
func (m Model) Target(a breath.Animation) Model {
	m.from = m.Current()
	m.to = a
	m.since = m.now()
	return m
}

// Current returns the interpolated shape at this instant.
func (m Model) Current() breath.Animation {
	if m.to.DurationMs <= 0 {
		return m.to
	}

	t := float64(m.now().Sub(m.since).Milliseconds()) / float64(m.to.DurationMs)
	t = min(max(t, 0), 1)
	// smoothstep
	t = t * t * (3 - 2*t)

	lerp := func(a, b float64) float64 { return a + (b-a)*t }

	return breath.Animation{
		OuterScale:   lerp(m.from.OuterScale, m.to.OuterScale),
		OuterOpacity: lerp(m.from.OuterOpacity, m.to.OuterOpacity),
		InnerScale:   lerp(m.from.InnerScale, m.to.InnerScale),
		InnerOpacity: lerp(m.from.InnerOpacity, m.to.InnerOpacity),
		DurationMs:   m.to.DurationMs,
	}
}

// Init returns the first frame tick.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update reschedules frame ticks.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, tick()
	}

	return m, nil
}

// View draws the current shape.
func (m Model) View() string {
	a := m.Current()
	runes := []rune(shades)

	radius := min(float64(m.width)/4, float64(m.height)/2)
	cx := float64(m.width-1) / 2
	cy := float64(m.height-1) / 2

	outerShade := runes[shadeIndex(a.OuterOpacity*0.5, len(runes))]
	innerShade := runes[shadeIndex(a.InnerOpacity, len(runes))]

	var sb strings.Builder

	for row := range m.height {
		if row > 0 {
			sb.WriteString("\n")
		}

		var outer, inner strings.Builder
		flush := func() {
			if outer.Len() > 0 {
				sb.WriteString(style.Outer.Render(outer.String()))
				outer.Reset()
			}
			if inner.Len() > 0 {
				sb.WriteString(style.Inner.Render(inner.String()))
				inner.Reset()
			}
		}

		for col := range m.width {
			dx := (float64(col) - cx) / 2
			dy := float64(row) - cy
			d := math.Hypot(dx, dy) / radius

			switch {
			case d <= a.InnerScale:
				if outer.Len() > 0 {
					flush()
				}
				inner.WriteRune(innerShade)
			case d <= a.OuterScale:
				if inner.Len() > 0 {
					flush()
				}
				outer.WriteRune(outerShade)
			default:
				flush()
				sb.WriteRune(' ')
			}
		}
		flush()
	}

	return sb.String()
}

func shadeIndex(opacity float64, n int) int {
	i := int(math.Round(opacity * float64(n-1)))
	return min(max(i, 1), n-1)
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

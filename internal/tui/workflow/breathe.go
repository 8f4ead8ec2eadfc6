package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/tui/components/circle"
	"github.com/alkime/breathewise/internal/tui/style"
	"github.com/alkime/breathewise/pkg/uictl"
)

const (
	circleWidth  = 44
	circleHeight = 11
	cardWidth    = 60
)

// SessionControls connects the breathe phase to a running session.
type SessionControls struct {
	// Events is subscribed on the session before Start is called.
	Events   <-chan breath.Event
	Looping  uictl.Knob
	Progress uictl.CappedDial[int64]
	// Start begins the session once the briefing is ready. It must not block.
	Start   func(*Briefing)
	Restart func()
}

// EventMsg carries one session event into the program.
type EventMsg breath.Event

// SessionClosedMsg is sent when the event channel is closed.
type SessionClosedMsg struct{}

// BreathePhase shows the breathing circle driven by session events.
type BreathePhase struct {
	keys     KeyMap
	controls SessionControls
	briefing *Briefing
	circle   circle.Model
	progress progress.Model
	now      func() time.Time

	started    bool
	last       breath.Event
	hasEvent   bool
	phaseSince time.Time
	width      int
}

// NewBreathePhase creates the phase. Nothing runs until Init.
func NewBreathePhase(controls SessionControls, b *Briefing) *BreathePhase {
	return &BreathePhase{
		keys:     DefaultKeyMap(),
		controls: controls,
		briefing: b,
		circle:   circle.New(circleWidth, circleHeight),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		now:   time.Now,
		width: 80,
	}
}

// Init starts the session and begins listening for its events.
func (bp *BreathePhase) Init() tea.Cmd {
	if bp.started {
		return nil
	}
	bp.started = true

	if bp.controls.Start != nil {
		bp.controls.Start(bp.briefing)
	}

	return tea.Batch(bp.circle.Init(), bp.waitForEvent())
}

func (bp *BreathePhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := teaMsg.(type) {
	case EventMsg:
		ev := breath.Event(m)
		bp.last = ev
		bp.hasEvent = true
		bp.phaseSince = bp.now()
		bp.circle = bp.circle.Target(ev.Animation)

		if ev.Stopped {
			return bp, tea.Quit
		}

		return bp, bp.waitForEvent()

	case SessionClosedMsg:
		return bp, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(m, bp.keys.Loop):
			if bp.controls.Looping == nil {
				return bp, nil
			}

			return bp, func() tea.Msg {
				bp.controls.Looping.Toggle()
				return nil
			}

		case key.Matches(m, bp.keys.Restart):
			// the session only accepts commands once it is running
			if !bp.running() || bp.controls.Restart == nil {
				return bp, nil
			}

			return bp, func() tea.Msg {
				bp.controls.Restart()
				return nil
			}
		}

	case tea.WindowSizeMsg:
		bp.width = m.Width
		bp.circle = bp.circle.Resize(min(circleWidth, m.Width-4), circleHeight)
		bp.progress.Width = max(min(40, m.Width-10), 10)

		return bp, nil

	case circle.TickMsg:
		var cmd tea.Cmd
		bp.circle, cmd = bp.circle.Update(m)

		return bp, cmd
	}

	return bp, nil
}

func (bp *BreathePhase) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render(bp.briefing.Pattern.Title()))
	sb.WriteString(" ")
	sb.WriteString(style.Subtitle.Render(bp.briefing.Mood.Emoji + " " + bp.briefing.Mood.Name))
	sb.WriteString("\n\n")

	sb.WriteString(bp.circle.View())
	sb.WriteString("\n\n")

	switch {
	case !bp.hasEvent:
		sb.WriteString(style.Subtitle.Render("Get ready..."))
	case bp.last.Finished:
		sb.WriteString(style.Warning.Render("Session complete"))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render("press r to go again"))
	default:
		elapsed := bp.now().Sub(bp.phaseSince).Milliseconds()
		sb.WriteString(style.Phase.Render(string(bp.last.Phase.Name)))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(bp.last.Countdown))
		sb.WriteString(" ")
		sb.WriteString(style.Key.Render(breath.Remaining(bp.last.Phase, elapsed)))
	}
	sb.WriteString("\n\n")

	if bp.controls.Progress != nil {
		current, total := bp.controls.Progress.Cap()
		sb.WriteString(bp.progress.ViewAs(uictl.Fraction(bp.controls.Progress)))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(fmt.Sprintf("%ds / %ds", current/1000, total/1000)))
		sb.WriteString("\n")
	}

	if bp.looping() {
		sb.WriteString(style.Success.Render("Loop: on"))
	} else {
		sb.WriteString(style.Muted.Render("Loop: off"))
	}

	switch {
	case bp.briefing.Guidance != nil:
		sb.WriteString(style.Muted.Render("  ♪ spoken guidance"))
	case bp.briefing.AudioErr != nil:
		sb.WriteString(style.Muted.Render("  guidance unavailable"))
	}
	sb.WriteString("\n\n")

	width := min(cardWidth, max(bp.width-4, 20))
	for _, text := range []string{bp.briefing.Story, bp.briefing.Suggestion} {
		if text == "" {
			continue
		}
		sb.WriteString(style.Card.Width(width).Render(text))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		RenderKeyHelp(bp.keys.Loop, "  "),
		RenderKeyHelp(bp.keys.Restart, "  "),
		style.Help.Render("[")+style.Key.Render("q")+style.Help.Render("] quit"),
	))

	return sb.String()
}

// Current returns the latest session event.
func (bp *BreathePhase) Current() (breath.Event, bool) {
	return bp.last, bp.hasEvent
}

func (bp *BreathePhase) running() bool {
	return bp.hasEvent && !bp.last.Stopped
}

func (bp *BreathePhase) looping() bool {
	if bp.hasEvent {
		return bp.last.Looping
	}

	return bp.controls.Looping != nil && bp.controls.Looping.Read()
}

func (bp *BreathePhase) waitForEvent() tea.Cmd {
	events := bp.controls.Events

	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return SessionClosedMsg{}
		}

		return EventMsg(ev)
	}
}

// Package workflow holds the phases of a terminal breathing session.
package workflow

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/catalog"
	"github.com/alkime/breathewise/internal/guide"
	"github.com/alkime/breathewise/internal/tui/components/checklist"
	"github.com/alkime/breathewise/internal/tui/components/phases"
)

// Checklist labels for the preparation tasks.
const (
	LabelStory      = "Calming story"
	LabelSuggestion = "Suggestion"
	LabelAudio      = "Spoken guidance"
)

// Preparer generates the content shown around a session. *guide.Service
// satisfies it.
type Preparer interface {
	Story(ctx context.Context, mood string) string
	Suggestion(ctx context.Context, mood string) string
	Audio(ctx context.Context, mood string, p breath.Pattern) (guide.Guidance, error)
}

// Briefing is everything gathered before the breathing starts. The prepare
// phase fills it in and the breathe phase reads it.
type Briefing struct {
	Mood       catalog.Mood
	Pattern    breath.Pattern
	Story      string
	Suggestion string
	// Guidance is nil when audio was skipped or failed.
	Guidance *guide.Guidance
	AudioErr error
}

// itemDoneMsg reports one finished task along with its result.
type itemDoneMsg struct {
	label string
	state checklist.State
	note  string
	apply func(*Briefing)
}

// PreparedMsg is sent once every task has finished.
type PreparedMsg struct{}

// PreparePhase generates the story, suggestion and spoken guidance
// concurrently, ticking each off as it arrives.
type PreparePhase struct {
	ctx      context.Context
	preparer Preparer
	briefing *Briefing
	audio    bool
	list     checklist.Model
	results  chan itemDoneMsg
	prepared bool
}

// NewPreparePhase creates the phase. When withAudio is false the guidance
// task is skipped.
func NewPreparePhase(ctx context.Context, p Preparer, b *Briefing, withAudio bool) *PreparePhase {
	return &PreparePhase{
		ctx:      ctx,
		preparer: p,
		briefing: b,
		audio:    withAudio,
		list: checklist.New(
			spinner.MiniDot,
			"Preparing your session...",
			b.Mood.Emoji+" "+b.Mood.Name+" · "+b.Pattern.Title(),
			"Take a comfortable seat while this finishes",
			LabelStory, LabelSuggestion, LabelAudio,
		),
	}
}

// Briefing returns the shared briefing.
func (pp *PreparePhase) Briefing() *Briefing {
	return pp.briefing
}

// Init starts the tasks.
func (pp *PreparePhase) Init() tea.Cmd {
	if pp.results != nil {
		return nil
	}

	pp.results = make(chan itemDoneMsg, 3)
	go pp.run()

	return tea.Batch(pp.list.Init(), pp.listen())
}

func (pp *PreparePhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := teaMsg.(type) {
	case itemDoneMsg:
		if m.apply != nil {
			m.apply(pp.briefing)
		}
		pp.list.Set(m.label, m.state, m.note)

		return pp, pp.listen()

	case PreparedMsg:
		pp.prepared = true
		slog.Debug("session prepared",
			"mood", pp.briefing.Mood.Name, "guidance", pp.briefing.Guidance != nil)

		return pp, phases.NextPhaseCmd
	}

	var cmd tea.Cmd
	pp.list, cmd = pp.list.Update(teaMsg)

	return pp, cmd
}

func (pp *PreparePhase) View() string {
	return pp.list.View()
}

// Prepared reports whether every task has finished.
func (pp *PreparePhase) Prepared() bool {
	return pp.prepared
}

func (pp *PreparePhase) listen() tea.Cmd {
	return func() tea.Msg {
		m, ok := <-pp.results
		if !ok {
			return PreparedMsg{}
		}

		return m
	}
}

func (pp *PreparePhase) run() {
	defer close(pp.results)

	mood := pp.briefing.Mood.Name
	pattern := pp.briefing.Pattern

	var g errgroup.Group

	g.Go(func() error {
		story := pp.preparer.Story(pp.ctx, mood)
		pp.results <- itemDoneMsg{
			label: LabelStory,
			state: checklist.Done,
			apply: func(b *Briefing) { b.Story = story },
		}

		return nil
	})

	g.Go(func() error {
		suggestion := pp.preparer.Suggestion(pp.ctx, mood)
		pp.results <- itemDoneMsg{
			label: LabelSuggestion,
			state: checklist.Done,
			apply: func(b *Briefing) { b.Suggestion = suggestion },
		}

		return nil
	})

	g.Go(func() error {
		if !pp.audio {
			pp.results <- itemDoneMsg{label: LabelAudio, state: checklist.Skipped, note: "disabled"}
			return nil
		}

		guidance, err := pp.preparer.Audio(pp.ctx, mood, pattern)
		if err != nil {
			slog.Warn("guidance audio unavailable", "mood", mood, "error", err)
			pp.results <- itemDoneMsg{
				label: LabelAudio,
				state: checklist.Failed,
				note:  "unavailable",
				apply: func(b *Briefing) { b.AudioErr = err },
			}

			return nil
		}

		pp.results <- itemDoneMsg{
			label: LabelAudio,
			state: checklist.Done,
			apply: func(b *Briefing) { b.Guidance = &guidance },
		}

		return nil
	})

	// failures are recorded per task, never returned
	_ = g.Wait()
}

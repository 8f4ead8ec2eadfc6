package breath

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alkime/breathewise/pkg/channels"
	"github.com/alkime/breathewise/pkg/uictl"
	"github.com/google/uuid"
)

// ErrSessionStarted is returned when Run is called more than once.
var ErrSessionStarted = errors.New("session already started")

// Stopper cancels a pending one-shot timer.
type Stopper interface {
	Stop() bool
}

// Timers arms one-shot timers. The real implementation is time.AfterFunc.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type wallTimers struct{}

func (wallTimers) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Event is published to subscribers whenever the session state changes.
type Event struct {
	SessionID  string      `json:"sessionId"`
	Cause      string      `json:"cause"`
	Pattern    PatternName `json:"pattern"`
	PhaseIndex int         `json:"phaseIndex"`
	Phase      Phase       `json:"phase"`
	Countdown  string      `json:"countdown"`
	Animation  Animation   `json:"animation"`
	Generation uint64      `json:"generation"`
	Looping    bool        `json:"looping"`
	Finished   bool        `json:"finished"`
	Stopped    bool        `json:"stopped"`
	At         time.Time   `json:"at"`
}

// Summary describes a session after it has stopped.
type Summary struct {
	ID        string
	Pattern   PatternName
	Looping   bool
	StartedAt time.Time
	EndedAt   time.Time
	// Cycles counts how many times the session ran from phase 0, including the first.
	Cycles uint64
}

type inputKind int

const (
	inputTimer inputKind = iota
	inputLoop
	inputRestart
)

type input struct {
	kind       inputKind
	timer      TimerKind
	generation uint64
	enabled    bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTimers replaces the wall-clock timers, mainly for tests.
func WithTimers(t Timers) SessionOption {
	return func(s *Session) { s.timers = t }
}

// WithNow replaces the time source used for event timestamps and progress.
func WithNow(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithID sets the session ID instead of generating one.
func WithID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// Session runs a Clock against real timers. Every timer firing and every
// command is handed to a single event-loop goroutine, so the clock has one
// writer. At most one timer of each kind is pending; arming a new one stops
// the previous. Cancelling the context given to Run unmounts the session and
// stops both timers.
type Session struct {
	id      string
	pattern Pattern
	timers  Timers
	now     func() time.Time
	logger  *slog.Logger
	bc      *channels.Broadcaster[Event]

	inputs  chan input
	done    chan struct{}
	started atomic.Bool

	mu         sync.Mutex
	running    bool
	looping    bool
	state      State
	cycleStart time.Time
	startedAt  time.Time
	cycles     uint64
	pending    map[TimerKind]Stopper
}

var _ uictl.Knob = (*Session)(nil)

// NewSession prepares a session for p. Nothing runs until Run is called.
func NewSession(p Pattern, looping bool, opts ...SessionOption) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:      uuid.NewString(),
		pattern: p.clone(),
		timers:  wallTimers{},
		now:     time.Now,
		logger:  slog.Default(),
		bc:      channels.NewBroadcaster[Event](),
		inputs:  make(chan input),
		done:    make(chan struct{}),
		looping: looping,
		pending: map[TimerKind]Stopper{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.state = State{Pattern: p.Name, Phase: p.Phases[0], Looping: looping}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Pattern returns the pattern the session runs.
func (s *Session) Pattern() Pattern {
	return s.pattern.clone()
}

// Subscribe registers ch for session events. Must be called before Run.
// Events are dropped for a subscriber whose channel is full.
func (s *Session) Subscribe(ch chan<- Event) error {
	return s.bc.Subscribe(ch)
}

// Run starts the clock and blocks until ctx is cancelled. On return both
// timers are stopped and a final stopped event has been delivered.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if !s.started.CompareAndSwap(false, true) {
		return Summary{}, ErrSessionStarted
	}
	defer close(s.done)

	publish, stopPublishing := s.startPublishing(ctx)
	defer stopPublishing()

	var clock Clock

	s.mu.Lock()
	arms, err := clock.Start(s.pattern, s.looping)
	if err != nil {
		s.mu.Unlock()
		return Summary{}, err
	}
	s.running = true
	s.startedAt = s.now()
	s.mu.Unlock()

	s.apply(&clock, arms)
	publish(s.event("start", false))

	s.logger.Debug("breathing session started",
		"session", s.id, "pattern", s.pattern.Name, "looping", clock.Snapshot().Looping)

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.stopTimers()

			summary := s.summary()
			publish(s.event("stop", true))
			s.logger.Debug("breathing session stopped", "session", s.id, "cycles", summary.Cycles)

			return summary, nil

		case in := <-s.inputs:
			before := clock.Snapshot()

			var cause string
			switch in.kind {
			case inputTimer:
				cause = in.timer.String()
				switch in.timer {
				case PhaseTimer:
					arms = clock.OnPhaseTimerFire(in.generation)
				case SessionTimer:
					arms = clock.OnSessionTimerFire(in.generation)
				}
			case inputLoop:
				cause = "loop"
				arms = clock.SetLooping(in.enabled)
			case inputRestart:
				cause = "restart"
				arms = clock.Restart()
			}

			s.apply(&clock, arms)

			after := clock.Snapshot()
			if after.Finished {
				s.stopTimers()
			}
			if after != before {
				publish(s.event(cause, false))
			}
		}
	}
}

// SetLooping changes the looping flag. Before Run it sets the initial flag.
func (s *Session) SetLooping(enabled bool) {
	s.mu.Lock()
	if !s.running {
		s.looping = enabled
		s.state.Looping = enabled
		s.mu.Unlock()

		return
	}
	s.mu.Unlock()

	s.send(input{kind: inputLoop, enabled: enabled})
}

// Restart begins the running session again from its first phase.
func (s *Session) Restart() {
	s.send(input{kind: inputRestart})
}

// State returns the latest clock state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// CurrentPhase returns the active phase.
func (s *Session) CurrentPhase() Phase {
	return s.State().Phase
}

// Read reports whether looping is enabled.
func (s *Session) Read() bool {
	return s.State().Looping
}

// On enables looping.
func (s *Session) On() { s.SetLooping(true) }

// Off disables looping.
func (s *Session) Off() { s.SetLooping(false) }

// Toggle flips looping.
func (s *Session) Toggle() { s.SetLooping(!s.Read()) }

// Elapsed returns the time since the current cycle started, capped at SessionDuration.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cycleStart.IsZero() {
		return 0
	}

	elapsed := s.now().Sub(s.cycleStart)
	if elapsed > SessionDuration {
		elapsed = SessionDuration
	}

	return elapsed
}

// Progress exposes the elapsed time of the current cycle as a dial capped
// at the session length, both in milliseconds.
func (s *Session) Progress() uictl.CappedDial[int64] {
	return progressDial{s: s}
}

type progressDial struct {
	s *Session
}

func (d progressDial) Read() int64 {
	return d.s.Elapsed().Milliseconds()
}

func (d progressDial) Cap() (int64, int64) {
	return d.Read(), SessionDuration.Milliseconds()
}

func (s *Session) send(in input) {
	select {
	case s.inputs <- in:
	case <-s.done:
	}
}

// apply arms the requested timers and records the new state. It runs on the
// event-loop goroutine only.
func (s *Session) apply(clock *Clock, arms []Arm) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range arms {
		if prev, ok := s.pending[a.Kind]; ok {
			prev.Stop()
		}

		s.pending[a.Kind] = s.timers.AfterFunc(a.After, func() {
			s.send(input{kind: inputTimer, timer: a.Kind, generation: a.Generation})
		})

		if a.Kind == SessionTimer {
			s.cycleStart = s.now()
			s.cycles++
		}
	}

	s.state = clock.Snapshot()
}

func (s *Session) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, t := range s.pending {
		t.Stop()
		delete(s.pending, kind)
	}
}

func (s *Session) event(cause string, stopped bool) Event {
	st := s.State()

	return Event{
		SessionID:  s.id,
		Cause:      cause,
		Pattern:    st.Pattern,
		PhaseIndex: st.PhaseIndex,
		Phase:      st.Phase,
		Countdown:  Countdown(st.Phase),
		Animation:  Targets(st.Phase),
		Generation: st.Generation,
		Looping:    st.Looping,
		Finished:   st.Finished,
		Stopped:    stopped,
		At:         s.now(),
	}
}

func (s *Session) summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		ID:        s.id,
		Pattern:   s.pattern.Name,
		Looping:   s.state.Looping,
		StartedAt: s.startedAt,
		EndedAt:   s.now(),
		Cycles:    s.cycles,
	}
}

// startPublishing runs the broadcaster on its own context so the event loop
// can deliver the final stopped event after ctx is cancelled.
func (s *Session) startPublishing(ctx context.Context) (func(Event), func()) {
	if s.bc.Len() == 0 {
		return func(Event) {}, func() {}
	}

	bctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	in, err := s.bc.Run(bctx)
	if err != nil {
		cancel()
		s.logger.Error("failed to start session broadcaster", "session", s.id, "error", err)

		return func(Event) {}, func() {}
	}

	return func(e Event) { in <- e }, func() {
		cancel()
		s.bc.Wait()
	}
}

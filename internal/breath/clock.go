package breath

import (
	"fmt"
	"time"
)

// SessionDuration is the length of one session before it either restarts
// (looping) or finishes.
const SessionDuration = 30 * time.Second

// TimerKind distinguishes the two one-shot timers a clock asks for.
type TimerKind int

const (
	// PhaseTimer advances to the next phase when it fires.
	PhaseTimer TimerKind = iota
	// SessionTimer ends or restarts the session when it fires.
	SessionTimer
)

func (k TimerKind) String() string {
	switch k {
	case PhaseTimer:
		return "phase"
	case SessionTimer:
		return "session"
	default:
		return fmt.Sprintf("TimerKind(%d)", int(k))
	}
}

// Arm asks the caller to schedule a one-shot timer. When it fires, the caller
// reports it back with Generation so stale timers can be recognised.
type Arm struct {
	Kind       TimerKind
	After      time.Duration
	Generation uint64
}

// State is a read-only view of a clock.
type State struct {
	Pattern    PatternName `json:"pattern"`
	PhaseIndex int         `json:"phaseIndex"`
	Phase      Phase       `json:"phase"`
	Generation uint64      `json:"generation"`
	Looping    bool        `json:"looping"`
	Finished   bool        `json:"finished"`
}

// Clock is the session clock state machine. It owns no timers and never
// reads the wall clock: every transition returns the timers the caller must
// arm, and the caller feeds timer firings back in. All methods must be called
// from a single goroutine.
type Clock struct {
	pattern    Pattern
	phaseIndex int
	generation uint64
	looping    bool
	finished   bool
	started    bool
}

// Start initialises the clock at phase 0, generation 0 and arms the first
// phase timer and the session timer.
func (c *Clock) Start(p Pattern, looping bool) ([]Arm, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	*c = Clock{
		pattern: p.clone(),
		looping: looping,
		started: true,
	}

	return c.armBoth(), nil
}

// OnPhaseTimerFire advances to the next phase, wrapping after the last one.
// A firing from an older generation, or after the session finished, is a no-op.
func (c *Clock) OnPhaseTimerFire(generation uint64) []Arm {
	if !c.live(generation) {
		return nil
	}

	c.phaseIndex = (c.phaseIndex + 1) % c.pattern.Len()

	return []Arm{c.phaseArm()}
}

// OnSessionTimerFire restarts the session from phase 0 under a new generation
// when looping. Without looping the session finishes where it stands.
func (c *Clock) OnSessionTimerFire(generation uint64) []Arm {
	if !c.live(generation) {
		return nil
	}

	if !c.looping {
		c.finished = true

		return nil
	}

	return c.reset()
}

// SetLooping records the looping flag. It never changes the current phase;
// the flag is consulted when the session timer next fires. Turning looping
// on for a session that already finished restarts it.
func (c *Clock) SetLooping(enabled bool) []Arm {
	was := c.looping
	c.looping = enabled

	if enabled && !was && c.started && c.finished {
		return c.reset()
	}

	return nil
}

// Restart begins the session again from phase 0 under a new generation.
func (c *Clock) Restart() []Arm {
	if !c.started {
		return nil
	}

	return c.reset()
}

// CurrentPhase returns the active phase. It is the zero Phase before Start.
func (c *Clock) CurrentPhase() Phase {
	if !c.started {
		return Phase{}
	}

	return c.pattern.Phases[c.phaseIndex]
}

// Snapshot returns the clock state.
func (c *Clock) Snapshot() State {
	return State{
		Pattern:    c.pattern.Name,
		PhaseIndex: c.phaseIndex,
		Phase:      c.CurrentPhase(),
		Generation: c.generation,
		Looping:    c.looping,
		Finished:   c.finished,
	}
}

func (c *Clock) live(generation uint64) bool {
	return c.started && !c.finished && generation == c.generation
}

func (c *Clock) reset() []Arm {
	c.generation++
	c.phaseIndex = 0
	c.finished = false

	return c.armBoth()
}

func (c *Clock) armBoth() []Arm {
	return []Arm{
		{Kind: SessionTimer, After: SessionDuration, Generation: c.generation},
		c.phaseArm(),
	}
}

func (c *Clock) phaseArm() Arm {
	return Arm{Kind: PhaseTimer, After: c.CurrentPhase().Duration, Generation: c.generation}
}

package breath

import (
	"sort"
	"time"
)

// Tick is one observable change of a clock replayed in virtual time.
type Tick struct {
	At    time.Duration `json:"-"`
	AtMs  int64         `json:"atMs"`
	Cause string        `json:"cause"`
	State State         `json:"state"`
}

type pendingTimer struct {
	due time.Duration
	arm Arm
}

// Timeline replays a session of p in virtual time up to horizon and returns
// every state change, starting with the initial state at 0. When both timers
// are due at the same instant the session timer fires first, so a reset
// invalidates the phase timer armed before it.
func Timeline(p Pattern, looping bool, horizon time.Duration) ([]Tick, error) {
	var clock Clock

	arms, err := clock.Start(p, looping)
	if err != nil {
		return nil, err
	}

	ticks := []Tick{newTick(0, "start", clock.Snapshot())}
	pending := map[TimerKind]pendingTimer{}
	schedule := func(now time.Duration, arms []Arm) {
		for _, a := range arms {
			pending[a.Kind] = pendingTimer{due: now + a.After, arm: a}
		}
	}
	schedule(0, arms)

	for len(pending) > 0 {
		next := nextDue(pending)
		if next.due > horizon {
			break
		}
		delete(pending, next.arm.Kind)

		before := clock.Snapshot()
		switch next.arm.Kind {
		case PhaseTimer:
			arms = clock.OnPhaseTimerFire(next.arm.Generation)
		case SessionTimer:
			arms = clock.OnSessionTimerFire(next.arm.Generation)
		}
		schedule(next.due, arms)

		after := clock.Snapshot()
		if after.Finished {
			clear(pending)
		}
		if after != before {
			ticks = append(ticks, newTick(next.due, next.arm.Kind.String(), after))
		}
	}

	return ticks, nil
}

func nextDue(pending map[TimerKind]pendingTimer) pendingTimer {
	timers := make([]pendingTimer, 0, len(pending))
	for _, t := range pending {
		timers = append(timers, t)
	}

	sort.Slice(timers, func(i, j int) bool {
		if timers[i].due != timers[j].due {
			return timers[i].due < timers[j].due
		}
		// session timer wins ties
		return timers[i].arm.Kind == SessionTimer
	})

	return timers[0]
}

func newTick(at time.Duration, cause string, s State) Tick {
	return Tick{At: at, AtMs: at.Milliseconds(), Cause: cause, State: s}
}

// Package breath implements breathing patterns and the session clock that
// steps through their phases.
package breath

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrUnknownPattern is returned when a pattern name is not one of the known variants.
var ErrUnknownPattern = errors.New("unknown breathing pattern")

// PhaseName labels a phase of a breathing pattern.
type PhaseName string

const (
	// Inhale is the breathing-in phase.
	Inhale PhaseName = "Inhale"
	// Hold is a breath-hold phase. It may appear more than once per pattern.
	Hold PhaseName = "Hold"
	// Exhale is the breathing-out phase.
	Exhale PhaseName = "Exhale"
)

// Phase is one named, timed segment of a breathing pattern.
type Phase struct {
	Name     PhaseName
	Duration time.Duration
}

// DurationMs returns the phase duration in whole milliseconds.
func (p Phase) DurationMs() int64 {
	return p.Duration.Milliseconds()
}

// MarshalJSON renders the phase as {"name": ..., "durationMs": ...}.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name       PhaseName `json:"name"`
		DurationMs int64     `json:"durationMs"`
	}{p.Name, p.DurationMs()})
}

// PatternName identifies one of the known breathing patterns.
type PatternName string

const (
	// PatternDefault is a plain inhale/exhale rhythm with a longer exhale.
	PatternDefault PatternName = "default"
	// PatternBox is four equal sides: inhale, hold, exhale, hold.
	PatternBox PatternName = "box"
	// PatternTriangular is inhale, hold, exhale.
	PatternTriangular PatternName = "triangular"
)

// Pattern is an ordered, fixed sequence of phases that repeats.
type Pattern struct {
	Name   PatternName `json:"name"`
	Phases []Phase     `json:"phases"`
}

var (
	patternOrder = []PatternName{PatternDefault, PatternBox, PatternTriangular}

	patterns = map[PatternName]Pattern{
		PatternDefault: {
			Name: PatternDefault,
			Phases: []Phase{
				{Name: Inhale, Duration: 4000 * time.Millisecond},
				{Name: Exhale, Duration: 6000 * time.Millisecond},
			},
		},
		PatternBox: {
			Name: PatternBox,
			Phases: []Phase{
				{Name: Inhale, Duration: 4000 * time.Millisecond},
				{Name: Hold, Duration: 4000 * time.Millisecond},
				{Name: Exhale, Duration: 4000 * time.Millisecond},
				{Name: Hold, Duration: 4000 * time.Millisecond},
			},
		},
		PatternTriangular: {
			Name: PatternTriangular,
			Phases: []Phase{
				{Name: Inhale, Duration: 4000 * time.Millisecond},
				{Name: Hold, Duration: 4000 * time.Millisecond},
				{Name: Exhale, Duration: 4000 * time.Millisecond},
			},
		},
	}
)

// Lookup returns a copy of the named pattern.
func Lookup(name string) (Pattern, error) {
	p, ok := patterns[PatternName(name)]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}

	return p.clone(), nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name PatternName) Pattern {
	p, err := Lookup(string(name))
	if err != nil {
		panic(err)
	}

	return p
}

// Patterns returns every known pattern in a stable order.
func Patterns() []Pattern {
	out := make([]Pattern, 0, len(patternOrder))
	for _, name := range patternOrder {
		out = append(out, patterns[name].clone())
	}

	return out
}

// Len returns the number of phases in one cycle.
func (p Pattern) Len() int {
	return len(p.Phases)
}

// CycleLength is the total duration of one pass through every phase.
func (p Pattern) CycleLength() time.Duration {
	var total time.Duration
	for _, ph := range p.Phases {
		total += ph.Duration
	}

	return total
}

// Validate reports whether the pattern can drive a session clock.
func (p Pattern) Validate() error {
	if len(p.Phases) == 0 {
		return fmt.Errorf("pattern %q has no phases", p.Name)
	}

	for i, ph := range p.Phases {
		if ph.Duration <= 0 {
			return fmt.Errorf("pattern %q phase %d (%s) must have a positive duration", p.Name, i, ph.Name)
		}
	}

	return nil
}

// Title is the human-readable name used in prompts and pages.
func (p Pattern) Title() string {
	switch p.Name {
	case PatternBox:
		return "Box Breathing"
	case PatternTriangular:
		return "Triangular Breathing"
	case PatternDefault:
		return "Relaxing Breath"
	default:
		return string(p.Name)
	}
}

// Instructions renders the pattern as "Inhale: 4 seconds, Hold: 4 seconds, ...".
func (p Pattern) Instructions() string {
	parts := make([]string, 0, len(p.Phases))
	for _, ph := range p.Phases {
		parts = append(parts, fmt.Sprintf("%s: %s", ph.Name, formatSeconds(ph.Duration)))
	}

	return strings.Join(parts, ", ")
}

func (p Pattern) clone() Pattern {
	return Pattern{Name: p.Name, Phases: slices.Clone(p.Phases)}
}

func formatSeconds(d time.Duration) string {
	secs := d.Seconds()
	if secs == float64(int64(secs)) {
		if secs == 1 {
			return "1 second"
		}

		return fmt.Sprintf("%d seconds", int64(secs))
	}

	return fmt.Sprintf("%.1f seconds", secs)
}

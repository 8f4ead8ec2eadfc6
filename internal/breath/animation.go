package breath

import "fmt"

// Animation holds the target values for the two breathing circles while a
// phase is active. The presentation layer eases towards them over the phase
// duration.
type Animation struct {
	OuterScale   float64 `json:"outerScale"`
	OuterOpacity float64 `json:"outerOpacity"`
	InnerScale   float64 `json:"innerScale"`
	InnerOpacity float64 `json:"innerOpacity"`
	DurationMs   int64   `json:"durationMs"`
}

// Targets maps a phase to its animation targets.
func Targets(p Phase) Animation {
	a := Animation{
		OuterScale:   0.7,
		OuterOpacity: 1,
		InnerScale:   0.6,
		InnerOpacity: 0.9,
		DurationMs:   p.DurationMs(),
	}

	if p.Name == Inhale {
		a.OuterScale = 1
		a.InnerScale = 0.8
	}

	if p.Name == Hold {
		a.OuterOpacity = 0.8
		a.InnerOpacity = 0.7
	}

	return a
}

// Countdown is the label shown under the phase name.
func Countdown(p Phase) string {
	return "for " + formatSeconds(p.Duration)
}

// Remaining formats the seconds left in a phase, rounded up.
func Remaining(p Phase, elapsedMs int64) string {
	left := p.DurationMs() - elapsedMs
	if left < 0 {
		left = 0
	}

	return fmt.Sprintf("%d", (left+999)/1000)
}

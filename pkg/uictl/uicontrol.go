// Package uictl defines small control interfaces shared between a running
// breathing session and the views that drive it.
package uictl

import "golang.org/x/exp/constraints"

// Number is any integer or float type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Knob is an on/off control, such as session looping.
type Knob interface {
	Read() bool
	On()
	Off()
	Toggle()
}

// Dial is a control that can read some value.
type Dial[N Number] interface {
	Read() N
}

// CappedDial is a Dial with a maximum, such as elapsed time out of the session length.
type CappedDial[N Number] interface {
	Dial[N]
	Cap() (num, max N)
}

// Fraction returns how far a capped dial is towards its maximum, in [0, 1].
func Fraction[N Number](d CappedDial[N]) float64 {
	num, maxValue := d.Cap()
	if maxValue <= 0 {
		return 0
	}

	f := float64(num) / float64(maxValue)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}

	return f
}

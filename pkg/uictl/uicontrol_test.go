package uictl_test

import (
	"testing"

	"github.com/alkime/breathewise/pkg/uictl"
	"github.com/stretchr/testify/assert"
)

type fixedDial struct {
	num, max int64
}

func (d fixedDial) Read() int64          { return d.num }
func (d fixedDial) Cap() (int64, int64) { return d.num, d.max }

func TestFraction(t *testing.T) {
	tests := []struct {
		name string
		dial fixedDial
		want float64
	}{
		{name: "halfway", dial: fixedDial{num: 15000, max: 30000}, want: 0.5},
		{name: "zero max", dial: fixedDial{num: 10, max: 0}, want: 0},
		{name: "over max clamps", dial: fixedDial{num: 40, max: 30}, want: 1},
		{name: "negative clamps", dial: fixedDial{num: -5, max: 30}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, uictl.Fraction[int64](tt.dial), 1e-9)
		})
	}
}

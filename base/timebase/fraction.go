package timebase

import (
	"fmt"
)

// Fraction is a rational number of seconds, used as the period of one tick.
type Fraction struct {
	Num uint64
	Den uint64
}

// Nanosecond is the scaling factor of a clock ticking once per nanosecond.
var Nanosecond = Fraction{Num: 1, Den: 1_000_000_000}

func NewFraction(num, den uint64) Fraction {
	if num == 0 || den == 0 {
		panic("invalid argument: fraction terms must be > 0")
	}
	return Fraction{Num: num, Den: den}
}

func (f Fraction) IsZero() bool {
	return f.Num == 0 || f.Den == 0
}

// Frequency returns the tick rate in Hz.
func (f Fraction) Frequency() float64 {
	return float64(f.Den) / float64(f.Num)
}

// Seconds converts a tick count to seconds.
func (f Fraction) Seconds(ticks uint64) float64 {
	return float64(ticks) * float64(f.Num) / float64(f.Den)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

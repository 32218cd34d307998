package timemath

import (
	"math"
	"math/big"
	"math/bits"
	"time"

	"example.com/hostclock/base/timebase"
)

const nanosPerSecond = uint64(time.Second)

// Ticks converts the non-negative duration d into a count of ticks with
// period f, rounding toward zero. It reports false if d is negative or the
// result does not fit into 64 bits.
func Ticks(d time.Duration, f timebase.Fraction) (uint64, bool) {
	if d < 0 || f.IsZero() {
		return 0, false
	}
	// ticks = d[ns] * Den / (Num * 1e9)
	dhi, div := bits.Mul64(f.Num, nanosPerSecond)
	if dhi != 0 {
		return ticksBig(d, f)
	}
	hi, lo := bits.Mul64(uint64(d), f.Den)
	if hi >= div {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, div)
	return q, true
}

func ticksBig(d time.Duration, f timebase.Fraction) (uint64, bool) {
	n := new(big.Int).SetUint64(uint64(d))
	n.Mul(n, new(big.Int).SetUint64(f.Den))
	div := new(big.Int).SetUint64(f.Num)
	div.Mul(div, new(big.Int).SetUint64(nanosPerSecond))
	n.Quo(n, div)
	if !n.IsUint64() {
		return 0, false
	}
	return n.Uint64(), true
}

// Duration converts a tick count with period f into a duration, rounding
// toward zero. It reports false if the result exceeds the range of
// time.Duration.
func Duration(ticks uint64, f timebase.Fraction) (time.Duration, bool) {
	if f.IsZero() {
		return 0, false
	}
	// d[ns] = ticks * Num * 1e9 / Den
	hi, lo := bits.Mul64(ticks, f.Num)
	if hi == 0 {
		hi, lo = bits.Mul64(lo, nanosPerSecond)
		if hi < f.Den {
			q, _ := bits.Div64(hi, lo, f.Den)
			if q > math.MaxInt64 {
				return 0, false
			}
			return time.Duration(q), true
		}
	}
	n := new(big.Int).SetUint64(ticks)
	n.Mul(n, new(big.Int).SetUint64(f.Num))
	n.Mul(n, new(big.Int).SetUint64(nanosPerSecond))
	n.Quo(n, new(big.Int).SetUint64(f.Den))
	if !n.IsInt64() {
		return 0, false
	}
	return time.Duration(n.Int64()), true
}

package timebase

import (
	"errors"
)

// ErrOverflow reports that the elapsed time can no longer be represented in
// a clock's tick register.
var ErrOverflow = errors.New("tick count overflow")

// Ticks is the set of integer types a tick register may use.
type Ticks interface {
	~uint32 | ~uint64
}

// MaxTicks returns the largest tick count representable in T.
func MaxTicks[T Ticks]() T {
	return ^T(0)
}

// Clock is a fallible source of instants at a fixed tick rate.
//
// Instants obtained from the same Clock are ordered. Instants from different
// Clock values may use different epochs and must not be compared.
type Clock[T Ticks] interface {
	// TryNow returns the current instant, or an error wrapping ErrOverflow
	// once the tick register cannot hold the elapsed time.
	TryNow() (Instant[T], error)

	// ScalingFactor returns the duration of one tick in seconds.
	ScalingFactor() Fraction
}

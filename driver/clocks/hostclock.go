package clocks

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"example.com/hostclock/base/timebase"
	"example.com/hostclock/base/timemath"
)

// HostClock implements timebase.Clock on top of a host monotonic time source.
//
// The tick register width is chosen by T. At the default scaling factor of
// one nanosecond per tick a uint64 register lasts for about 584 years, a
// uint32 register for about 4.29 seconds.
type HostClock[T timebase.Ticks] struct {
	log   *slog.Logger
	src   Source
	scale timebase.Fraction
}

var _ timebase.Clock[uint64] = (*HostClock[uint64])(nil)

// NewHostClock returns a nanosecond clock with a 64-bit tick register. The
// clock is started when it is constructed.
func NewHostClock(log *slog.Logger) *HostClock[uint64] {
	return NewCustomHostClock[uint64](log, NewProcessSource(), timebase.Nanosecond)
}

func NewCustomHostClock[T timebase.Ticks](log *slog.Logger, src Source, scale timebase.Fraction) *HostClock[T] {
	if scale.IsZero() {
		panic("invalid argument: scaling factor must be > 0")
	}
	return &HostClock[T]{log: log, src: src, scale: scale}
}

func (c *HostClock[T]) ScalingFactor() timebase.Fraction {
	return c.scale
}

func (c *HostClock[T]) TryNow() (timebase.Instant[T], error) {
	elapsed := c.src.Elapsed()
	ticks, ok := timemath.Ticks(elapsed, c.scale)
	if !ok || ticks > uint64(timebase.MaxTicks[T]()) {
		c.log.LogAttrs(context.Background(), slog.LevelDebug, "host clock overflow",
			slog.Duration("elapsed", elapsed),
			slog.String("scaling factor", c.scale.String()),
		)
		return timebase.Instant[T]{}, fmt.Errorf("%w: %v elapsed at %s s/tick",
			timebase.ErrOverflow, elapsed, c.scale)
	}
	return timebase.NewInstant(T(ticks)), nil
}

// Headroom returns the time left until the tick register reaches its maximum
// value. TryNow keeps succeeding for less than one further tick after that.
// Registers outlasting time.Duration report the remainder of its range.
func (c *HostClock[T]) Headroom() time.Duration {
	limit, ok := timemath.Duration(uint64(timebase.MaxTicks[T]()), c.scale)
	if !ok {
		limit = math.MaxInt64
	}
	elapsed := c.src.Elapsed()
	if elapsed >= limit {
		return 0
	}
	return limit - elapsed
}

// Elapsed converts the tick distance between two instants of this clock into
// a duration. It reports false if end is before start.
func (c *HostClock[T]) Elapsed(start, end timebase.Instant[T]) (time.Duration, bool) {
	ticks, ok := end.Since(start)
	if !ok {
		return 0, false
	}
	return timemath.Duration(uint64(ticks), c.scale)
}

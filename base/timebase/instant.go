package timebase

import (
	"cmp"
	"log/slog"
	"strconv"
)

// Instant is a tick count relative to the epoch of the clock that produced it.
type Instant[T Ticks] struct {
	ticks T
}

func NewInstant[T Ticks](ticks T) Instant[T] {
	return Instant[T]{ticks: ticks}
}

func (i Instant[T]) Ticks() T {
	return i.ticks
}

func (i Instant[T]) Compare(j Instant[T]) int {
	return cmp.Compare(i.ticks, j.ticks)
}

func (i Instant[T]) Before(j Instant[T]) bool {
	return i.ticks < j.ticks
}

func (i Instant[T]) After(j Instant[T]) bool {
	return i.ticks > j.ticks
}

// Since returns the number of ticks from earlier to i. It reports false if
// earlier is after i.
func (i Instant[T]) Since(earlier Instant[T]) (T, bool) {
	if earlier.ticks > i.ticks {
		return 0, false
	}
	return i.ticks - earlier.ticks, true
}

func (i Instant[T]) String() string {
	return "Instant(" + strconv.FormatUint(uint64(i.ticks), 10) + " ticks)"
}

func (i Instant[T]) LogValue() slog.Value {
	return slog.Uint64Value(uint64(i.ticks))
}

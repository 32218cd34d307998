package measurements

import (
	"context"
	"time"

	"example.com/hostclock/base/timebase"
)

// Sample pairs a reference reading with the tick count a clock reported at
// about the same moment.
type Sample struct {
	Reference time.Duration
	Ticks     uint64
}

// Reference is an independent elapsed-time source to measure a clock against.
type Reference interface {
	Elapsed() time.Duration
}

// Collect takes n samples of clk against ref, waiting interval between
// consecutive samples. The reference is read on both sides of the clock read
// and the midpoint is recorded.
func Collect[T timebase.Ticks](ctx context.Context, clk timebase.Clock[T], ref Reference,
	n int, interval time.Duration) ([]Sample, error) {
	if n < 1 {
		panic("invalid argument: number of samples must be >= 1")
	}
	samples := make([]Sample, 0, n)
	for i := range n {
		if i != 0 {
			t := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return samples, ctx.Err()
			case <-t.C:
			}
		}
		r0 := ref.Elapsed()
		now, err := clk.TryNow()
		r1 := ref.Elapsed()
		if err != nil {
			return samples, err
		}
		samples = append(samples, Sample{
			Reference: r0 + (r1-r0)/2,
			Ticks:     uint64(now.Ticks()),
		})
	}
	return samples, nil
}

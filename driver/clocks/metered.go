package clocks

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"example.com/hostclock/base/metrics"
	"example.com/hostclock/base/timebase"
)

type hostClockMetrics struct {
	reads     prometheus.Counter
	overflows prometheus.Counter
}

func newHostClockMetrics() *hostClockMetrics {
	return &hostClockMetrics{
		reads: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.HostClockReadsN,
			Help: metrics.HostClockReadsH,
		}),
		overflows: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.HostClockOverflowsN,
			Help: metrics.HostClockOverflowsH,
		}),
	}
}

var hostClockMtrcs atomic.Pointer[hostClockMetrics]

func init() {
	hostClockMtrcs.Store(newHostClockMetrics())
}

// MeteredClock counts the reads and overflows of the clock it wraps.
type MeteredClock[T timebase.Ticks] struct {
	clk timebase.Clock[T]
}

var _ timebase.Clock[uint64] = MeteredClock[uint64]{}

func NewMeteredClock[T timebase.Ticks](clk timebase.Clock[T]) MeteredClock[T] {
	return MeteredClock[T]{clk: clk}
}

func (c MeteredClock[T]) ScalingFactor() timebase.Fraction {
	return c.clk.ScalingFactor()
}

func (c MeteredClock[T]) TryNow() (timebase.Instant[T], error) {
	mtrcs := hostClockMtrcs.Load()
	mtrcs.reads.Inc()
	t, err := c.clk.TryNow()
	if errors.Is(err, timebase.ErrOverflow) {
		mtrcs.overflows.Inc()
	}
	return t, err
}

package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"example.com/hostclock/base/metrics"
	"example.com/hostclock/base/timebase"
)

// HeadroomReporter is implemented by clocks that know how long their tick
// register lasts.
type HeadroomReporter interface {
	Headroom() time.Duration
}

type headroomMetrics struct {
	headroom prometheus.Gauge
	low      prometheus.Gauge
}

func newHeadroomMetrics() *headroomMetrics {
	return &headroomMetrics{
		headroom: promauto.NewGauge(prometheus.GaugeOpts{
			Name: metrics.HostClockHeadroomN,
			Help: metrics.HostClockHeadroomH,
		}),
		low: promauto.NewGauge(prometheus.GaugeOpts{
			Name: metrics.HostClockHeadroomLowN,
			Help: metrics.HostClockHeadroomLowH,
		}),
	}
}

var headroomMtrcs atomic.Pointer[headroomMetrics]

func init() {
	headroomMtrcs.Store(newHeadroomMetrics())
}

type headroomWatch[T timebase.Ticks] struct {
	log        *slog.Logger
	clk        timebase.Clock[T]
	hr         HeadroomReporter
	threshold  time.Duration
	low        bool
	overflowed bool
}

func (w *headroomWatch[T]) check(ctx context.Context) {
	_, err := w.clk.TryNow()
	overflowed := err != nil
	if overflowed && !w.overflowed {
		w.log.LogAttrs(ctx, slog.LevelError, "failed to read host clock", slog.Any("error", err))
	}
	w.overflowed = overflowed

	mtrcs := headroomMtrcs.Load()
	h := w.hr.Headroom()
	mtrcs.headroom.Set(h.Seconds())
	low := h < w.threshold
	if low && !w.low {
		w.log.LogAttrs(ctx, slog.LevelWarn, "host clock headroom below threshold",
			slog.Duration("headroom", h), slog.Duration("threshold", w.threshold))
		mtrcs.low.Set(1)
	} else if !low && w.low {
		mtrcs.low.Set(0)
	}
	w.low = low
}

// StartHeadroomWatch reads clk and publishes the headroom reported by hr
// every interval until ctx is done. It warns once the headroom drops below
// threshold and logs an error once clk stops returning instants.
func StartHeadroomWatch[T timebase.Ticks](ctx context.Context, log *slog.Logger,
	clk timebase.Clock[T], hr HeadroomReporter, threshold, interval time.Duration) {
	if interval <= 0 {
		panic("invalid argument: watch interval must be > 0")
	}
	w := &headroomWatch[T]{log: log, clk: clk, hr: hr, threshold: threshold}
	headroomMtrcs.Load().low.Set(0)
	w.check(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.check(ctx)
			}
		}
	}()
}

package benchmark

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"example.com/hostclock/base/timebase"
)

const significantFig = 3

var maxLatency = int64(time.Second)

type Report struct {
	Reads      int64
	Overflows  int64
	Violations int64
	OutOfRange int64 // reads slower than the histogram range, not in Latency
	Elapsed    time.Duration
	Latency    *hdrhistogram.Histogram
}

// RunHostClockBenchmark reads clk concurrently from numGoroutine goroutines,
// numRead times each, and records the latency of every read. Each goroutine
// also checks that the instants it observes never decrease.
func RunHostClockBenchmark[T timebase.Ticks](ctx context.Context, log *slog.Logger,
	clk timebase.Clock[T], numGoroutine, numRead int, out io.Writer) Report {
	if numGoroutine < 1 || numRead < 1 {
		panic("invalid argument: benchmark requires at least one goroutine and one read")
	}

	var mu sync.Mutex
	r := Report{Latency: hdrhistogram.New(1, maxLatency, significantFig)}
	sg := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(numGoroutine)

	for range numGoroutine {
		go func() {
			defer wg.Done()
			hg := hdrhistogram.New(1, maxLatency, significantFig)
			var reads, overflows, violations, outOfRange int64
			var prev timebase.Instant[T]

			<-sg
			for range numRead {
				t0 := time.Now()
				now, err := clk.TryNow()
				lat := time.Since(t0)
				reads++
				if hg.RecordValue(int64(lat)) != nil {
					outOfRange++
					log.LogAttrs(ctx, slog.LevelDebug, "read latency out of range",
						slog.Duration("latency", lat))
				}
				if err != nil {
					if errors.Is(err, timebase.ErrOverflow) {
						overflows++
					}
					continue
				}
				if now.Before(prev) {
					violations++
					log.LogAttrs(ctx, slog.LevelWarn, "clock went backwards",
						slog.Any("previous", prev), slog.Any("current", now))
				}
				prev = now
			}

			mu.Lock()
			defer mu.Unlock()
			r.Latency.Merge(hg)
			r.Reads += reads
			r.Overflows += overflows
			r.Violations += violations
			r.OutOfRange += outOfRange
		}()
	}
	t0 := time.Now()
	close(sg)
	wg.Wait()
	r.Elapsed = time.Since(t0)

	log.LogAttrs(ctx, slog.LevelInfo, "time elapsed",
		slog.Duration("duration", r.Elapsed),
		slog.Int64("reads", r.Reads),
		slog.Int64("overflows", r.Overflows),
		slog.Int64("violations", r.Violations),
		slog.Int64("out of range", r.OutOfRange),
		slog.Duration("p50", time.Duration(r.Latency.ValueAtQuantile(50))),
		slog.Duration("p99", time.Duration(r.Latency.ValueAtQuantile(99))),
	)
	if out != nil {
		_, _ = r.Latency.PercentilesPrint(out, 1, 1.0)
	}
	return r
}

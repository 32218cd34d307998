package benchmark

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"example.com/hostclock/base/timebase"
	"example.com/hostclock/driver/clocks"
)

func TestRunHostClockBenchmark(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	clk := clocks.NewHostClock(log)
	var out bytes.Buffer

	r := RunHostClockBenchmark(context.Background(), log, clk, 4, 500, &out)
	if r.Reads != 2000 {
		t.Errorf("reads: got %d, want 2000", r.Reads)
	}
	if r.Overflows != 0 || r.Violations != 0 {
		t.Errorf("overflows, violations: got %d, %d, want 0, 0", r.Overflows, r.Violations)
	}
	if r.Latency.TotalCount() != 2000 {
		t.Errorf("latency samples: got %d, want 2000", r.Latency.TotalCount())
	}
	if out.Len() == 0 {
		t.Error("no percentiles printed")
	}
}

func TestRunHostClockBenchmarkOverflow(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	src := clocks.NewManualSource(5 * time.Second)
	clk := clocks.NewCustomHostClock[uint32](log, src, timebase.Nanosecond)

	r := RunHostClockBenchmark(context.Background(), log, clk, 2, 10, nil)
	if r.Reads != 20 || r.Overflows != 20 {
		t.Errorf("reads, overflows: got %d, %d, want 20, 20", r.Reads, r.Overflows)
	}
}

type slowClock struct {
	timebase.Clock[uint64]
	delay time.Duration
}

func (c slowClock) TryNow() (timebase.Instant[uint64], error) {
	time.Sleep(c.delay)
	return c.Clock.TryNow()
}

func TestRunHostClockBenchmarkSlowReads(t *testing.T) {
	defer func(v int64) { maxLatency = v }(maxLatency)
	maxLatency = int64(100 * time.Microsecond)

	log := slog.New(slog.DiscardHandler)
	clk := slowClock{Clock: clocks.NewHostClock(log), delay: time.Millisecond}

	r := RunHostClockBenchmark(context.Background(), log, clk, 2, 5, nil)
	if r.Reads != 10 {
		t.Errorf("reads: got %d, want 10", r.Reads)
	}
	if r.OutOfRange != r.Reads {
		t.Errorf("out of range: got %d, want %d", r.OutOfRange, r.Reads)
	}
	if got := r.Latency.TotalCount() + r.OutOfRange; got != r.Reads {
		t.Errorf("recorded + out of range: got %d, want %d", got, r.Reads)
	}
}

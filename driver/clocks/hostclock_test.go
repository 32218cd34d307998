package clocks

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"example.com/hostclock/base/timebase"
)

var discardLog = slog.New(slog.DiscardHandler)

func TestHostClockFresh(t *testing.T) {
	clk := NewHostClock(discardLog)
	if _, err := clk.TryNow(); err != nil {
		t.Fatalf("TryNow on a fresh clock: got error %v", err)
	}
	if clk.ScalingFactor() != timebase.Nanosecond {
		t.Errorf("ScalingFactor: got %v, want %v", clk.ScalingFactor(), timebase.Nanosecond)
	}
}

func TestHostClockMonotonic(t *testing.T) {
	clk := NewHostClock(discardLog)
	prev, err := clk.TryNow()
	if err != nil {
		t.Fatal(err)
	}
	for range 10_000 {
		now, err := clk.TryNow()
		if err != nil {
			t.Fatal(err)
		}
		if now.Before(prev) {
			t.Fatalf("clock went backwards: %v after %v", now, prev)
		}
		prev = now
	}
}

func TestHostClockMeasurement(t *testing.T) {
	clk := NewHostClock(discardLog)

	start, err := clk.TryNow()
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	end, err := clk.TryNow()
	if err != nil {
		t.Fatal(err)
	}

	d, ok := clk.Elapsed(start, end)
	if !ok {
		t.Fatalf("Elapsed(%v, %v) failed", start, end)
	}
	if d < 10*time.Millisecond || d >= 200*time.Millisecond {
		t.Errorf("measured sleep of 10ms: got %v, want [10ms, 200ms)", d)
	}
	if _, ok := clk.Elapsed(end, start); ok {
		t.Errorf("Elapsed(%v, %v): got ok, want failure", end, start)
	}
}

func TestHostClockInstancesAgree(t *testing.T) {
	a := NewHostClock(discardLog)
	b := NewHostClock(discardLog)

	ta, err := a.TryNow()
	if err != nil {
		t.Fatal(err)
	}
	tb, err := b.TryNow()
	if err != nil {
		t.Fatal(err)
	}

	const maxDelta = uint64(100 * time.Millisecond)
	x, y := ta.Ticks(), tb.Ticks()
	if x > y {
		x, y = y, x
	}
	if y-x > maxDelta {
		t.Errorf("independent clocks disagree: %v vs %v", ta, tb)
	}
}

func TestHostClockNarrowOverflow(t *testing.T) {
	src := NewManualSource(0)
	clk := NewCustomHostClock[uint32](discardLog, src, timebase.Nanosecond)

	now, err := clk.TryNow()
	if err != nil || now.Ticks() != 0 {
		t.Fatalf("TryNow at 0: got (%v, %v), want 0 ticks", now, err)
	}

	src.Advance(time.Duration(timebase.MaxTicks[uint32]()))
	now, err = clk.TryNow()
	if err != nil || now.Ticks() != timebase.MaxTicks[uint32]() {
		t.Fatalf("TryNow at last tick: got (%v, %v), want %d ticks", now, err, timebase.MaxTicks[uint32]())
	}

	src.Advance(time.Nanosecond)
	now, err = clk.TryNow()
	if !errors.Is(err, timebase.ErrOverflow) {
		t.Fatalf("TryNow past last tick: got (%v, %v), want ErrOverflow", now, err)
	}
	if now.Ticks() != 0 {
		t.Errorf("failed TryNow returned %v, want zero instant", now)
	}
}

func TestHostClockNegativeElapsed(t *testing.T) {
	clk := NewCustomHostClock[uint64](discardLog, NewManualSource(-time.Second), timebase.Nanosecond)
	if _, err := clk.TryNow(); !errors.Is(err, timebase.ErrOverflow) {
		t.Errorf("TryNow with negative elapsed time: got %v, want ErrOverflow", err)
	}
}

func TestHostClockScaling(t *testing.T) {
	src := NewManualSource(1500 * time.Millisecond)
	clk := NewCustomHostClock[uint32](discardLog, src, timebase.NewFraction(1, 1000))

	now, err := clk.TryNow()
	if err != nil {
		t.Fatal(err)
	}
	if now.Ticks() != 1500 {
		t.Errorf("TryNow at 1.5s with 1 kHz ticks: got %d, want 1500", now.Ticks())
	}
}

func TestHostClockHeadroom(t *testing.T) {
	src := NewManualSource(0)
	clk := NewCustomHostClock[uint32](discardLog, src, timebase.Nanosecond)

	limit := time.Duration(timebase.MaxTicks[uint32]())
	if h := clk.Headroom(); h != limit {
		t.Errorf("Headroom at 0: got %v, want %v", h, limit)
	}
	src.Advance(time.Second)
	if h := clk.Headroom(); h != limit-time.Second {
		t.Errorf("Headroom at 1s: got %v, want %v", h, limit-time.Second)
	}
	src.Advance(limit)
	if h := clk.Headroom(); h != 0 {
		t.Errorf("Headroom past limit: got %v, want 0", h)
	}

	wide := NewHostClock(discardLog)
	if h := wide.Headroom(); h < 290*365*24*time.Hour {
		t.Errorf("Headroom of 64-bit nanosecond clock: got %v, want > 290 years", h)
	}
}

func TestHostClockConcurrent(t *testing.T) {
	const numGoroutine = 8
	const numRead = 1000

	clk := NewHostClock(discardLog)
	var wg sync.WaitGroup
	wg.Add(numGoroutine)
	for range numGoroutine {
		go func() {
			defer wg.Done()
			var prev timebase.Instant[uint64]
			for range numRead {
				now, err := clk.TryNow()
				if err != nil {
					t.Error(err)
					return
				}
				if now.Before(prev) {
					t.Errorf("clock went backwards: %v after %v", now, prev)
					return
				}
				prev = now
			}
		}()
	}
	wg.Wait()
}

func TestOSSourceMonotonic(t *testing.T) {
	src := NewOSSource()
	clk := NewCustomHostClock[uint64](discardLog, src, timebase.Nanosecond)
	prev, err := clk.TryNow()
	if err != nil {
		t.Fatal(err)
	}
	for range 1000 {
		now, err := clk.TryNow()
		if err != nil {
			t.Fatal(err)
		}
		if now.Before(prev) {
			t.Fatalf("OS source went backwards: %v after %v", now, prev)
		}
		prev = now
	}
}

func TestOSSourceFreshNarrowClock(t *testing.T) {
	clk := NewCustomHostClock[uint32](discardLog, NewOSSource(), timebase.Nanosecond)
	if _, err := clk.TryNow(); err != nil {
		t.Fatalf("TryNow on a fresh 32-bit OS source clock: got error %v", err)
	}
	if h := clk.Headroom(); h < 4*time.Second {
		t.Errorf("Headroom of a fresh 32-bit OS source clock: got %v, want > 4s", h)
	}
}

func TestManualSourceRejectsNegativeAdvance(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Advance(-1ns) did not panic")
		}
	}()
	NewManualSource(0).Advance(-time.Nanosecond)
}

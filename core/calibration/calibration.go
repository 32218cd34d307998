package calibration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"example.com/hostclock/base/timebase"
	"example.com/hostclock/core/measurements"
)

// ErrMiscalibrated reports that a clock's tick rate disagrees with its
// declared scaling factor.
var ErrMiscalibrated = errors.New("clock rate does not match scaling factor")

// ErrReferenceStalled reports that the reference did not advance between
// samples, so no rate can be fitted.
var ErrReferenceStalled = errors.New("reference did not advance during calibration")

// Result describes the fit of clock seconds (y) against reference seconds (x).
// A correctly scaled clock has a slope of 1.
type Result struct {
	Slope     float64
	Intercept float64
	Samples   int
}

func (r Result) Check(tolerance float64) error {
	if math.IsNaN(r.Slope) || math.Abs(r.Slope-1) > tolerance {
		return fmt.Errorf("%w: rate %.6f, tolerance %g", ErrMiscalibrated, r.Slope, tolerance)
	}
	return nil
}

func Estimate(samples []measurements.Sample, scale timebase.Fraction) (Result, error) {
	if len(samples) < MinSamples {
		panic("invalid argument: calibration requires at least two samples")
	}
	pts := make([]point, len(samples))
	for i, s := range samples {
		pts[i] = point{
			x: s.Reference.Seconds(),
			y: scale.Seconds(s.Ticks),
		}
	}
	if !spread(pts) {
		return Result{}, fmt.Errorf("%w: %d samples at %v",
			ErrReferenceStalled, len(samples), samples[0].Reference)
	}
	m := slope(pts)
	return Result{
		Slope:     m,
		Intercept: intercept(m, pts),
		Samples:   len(pts),
	}, nil
}

// Calibrate measures clk against ref and fits its rate.
func Calibrate[T timebase.Ticks](ctx context.Context, log *slog.Logger,
	clk timebase.Clock[T], ref measurements.Reference, n int, interval time.Duration) (Result, error) {
	if n < MinSamples || n > MaxSamples {
		panic("invalid argument: number of calibration samples out of range")
	}
	samples, err := measurements.Collect(ctx, clk, ref, n, interval)
	if err != nil {
		return Result{}, err
	}
	r, err := Estimate(samples, clk.ScalingFactor())
	if err != nil {
		return Result{}, err
	}
	log.LogAttrs(ctx, slog.LevelDebug, "Theil-Sen estimate",
		slog.Int("# of data points", r.Samples),
		slog.Float64("slope", r.Slope),
		slog.Float64("intercept", r.Intercept),
	)
	return r, nil
}

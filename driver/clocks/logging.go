package clocks

import (
	"go.uber.org/zap/zapcore"

	"example.com/hostclock/base/timebase"
)

// InstantMarshaler logs an instant together with its scaling factor in zap
// based code. It is exported for callers that embed a host clock in a zap
// logging stack; this module's own commands log through slog and use
// Instant.LogValue instead.
//
//	log.Debug("read", zap.Object("now", clocks.InstantMarshaler[uint64]{
//		Instant: now, ScalingFactor: clk.ScalingFactor()}))
type InstantMarshaler[T timebase.Ticks] struct {
	Instant       timebase.Instant[T]
	ScalingFactor timebase.Fraction
}

func (m InstantMarshaler[T]) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("ticks", uint64(m.Instant.Ticks()))
	enc.AddString("scaling_factor", m.ScalingFactor.String())
	enc.AddFloat64("seconds", m.ScalingFactor.Seconds(uint64(m.Instant.Ticks())))
	return nil
}

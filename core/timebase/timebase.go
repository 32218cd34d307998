package timebase

import (
	"sync/atomic"

	"example.com/hostclock/base/timebase"
)

type registration struct {
	clk   timebase.Clock[uint64]
	epoch uint64
}

var (
	reg   atomic.Pointer[registration]
	epoch atomic.Uint64
)

// RegisterClock installs clk as the process-wide clock. Every registration
// starts a new epoch; instants read in different epochs are unrelated.
func RegisterClock(clk timebase.Clock[uint64]) {
	if clk == nil {
		panic("invalid argument: clock must not be nil")
	}
	reg.Store(&registration{clk: clk, epoch: epoch.Add(1)})
}

func registered() *registration {
	r := reg.Load()
	if r == nil {
		panic("no clock registered")
	}
	return r
}

func TryNow() (timebase.Instant[uint64], error) {
	return registered().clk.TryNow()
}

func ScalingFactor() timebase.Fraction {
	return registered().clk.ScalingFactor()
}

func Epoch() uint64 {
	return registered().epoch
}

package clocks

import (
	"sync/atomic"
	"time"
)

// Source reports the time elapsed since its reference point. Successive
// calls must not return decreasing values.
type Source interface {
	Elapsed() time.Duration
}

// ProcessSource measures elapsed time with the monotonic reading carried by
// time.Time. Its reference point is the moment it was created.
type ProcessSource struct {
	start time.Time
}

var _ Source = (*ProcessSource)(nil)

func NewProcessSource() *ProcessSource {
	return &ProcessSource{start: time.Now()}
}

func (s *ProcessSource) Elapsed() time.Duration {
	return time.Since(s.start)
}

// ManualSource only advances when told to. It stands in for the host clock
// in tests.
type ManualSource struct {
	elapsed atomic.Int64
}

var _ Source = (*ManualSource)(nil)

func NewManualSource(elapsed time.Duration) *ManualSource {
	s := &ManualSource{}
	s.elapsed.Store(int64(elapsed))
	return s
}

func (s *ManualSource) Elapsed() time.Duration {
	return time.Duration(s.elapsed.Load())
}

func (s *ManualSource) Advance(d time.Duration) {
	if d < 0 {
		panic("invalid argument: manual source cannot go backwards")
	}
	s.elapsed.Add(int64(d))
}

//go:build !linux

package clocks

import (
	"time"
)

// OSSource falls back to the Go runtime's monotonic clock on this platform.
// Its reference point is the moment it was created.
type OSSource struct {
	ps *ProcessSource
}

var _ Source = (*OSSource)(nil)

func NewOSSource() *OSSource {
	return &OSSource{ps: NewProcessSource()}
}

func (s *OSSource) Elapsed() time.Duration {
	return s.ps.Elapsed()
}

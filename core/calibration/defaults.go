package calibration

import "time"

const (
	MinSamples     = 2
	DefaultSamples = 20
	MaxSamples     = 1000

	DefaultInterval  = 50 * time.Millisecond
	DefaultTolerance = 0.01
)

package metrics

const (
	HostClockReadsN = "hostclock_reads_total"
	HostClockReadsH = "The total number of instants read from the host clock"

	HostClockOverflowsN = "hostclock_overflows_total"
	HostClockOverflowsH = "The total number of host clock reads that failed with a tick overflow"

	HostClockHeadroomN = "hostclock_headroom_seconds"
	HostClockHeadroomH = "Time left until the host clock tick register overflows"

	HostClockHeadroomLowN = "hostclock_headroom_low"
	HostClockHeadroomLowH = "1 if the host clock headroom is below the configured threshold, otherwise 0"
)

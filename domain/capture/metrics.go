package capture

import "time"

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Source         string
	Captures       uint64
	Skipped        uint64
	AvgCapture     time.Duration
	LastCapture    time.Time
	LatestFrameAge time.Duration
	Sequence       uint64
}

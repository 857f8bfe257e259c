package pipeline

// WorkerState is the inference worker's position in its cycle.
type WorkerState int32

const (
	StateIdle WorkerState = iota
	StateWaitingForFrame
	StateInvoking
	StatePublishing
	StateUnavailable
)

func (s WorkerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForFrame:
		return "waiting_for_frame"
	case StateInvoking:
		return "invoking"
	case StatePublishing:
		return "publishing"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// WorkerStats counts cycle outcomes.
type WorkerStats struct {
	Processed   uint64
	Annotated   uint64
	Passthrough uint64
	Failures    uint64
	Panics      uint64
}

package scan

// State is the orchestrator's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateAggregating
	StateReporting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateScanning:    "scanning",
	StateAggregating: "aggregating",
	StateReporting:   "reporting",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s < StateIdle || s > StateFailed {
		return "unknown"
	}
	return stateNames[s]
}

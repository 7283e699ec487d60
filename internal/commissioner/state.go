package commissioner

// State is the commissioner state machine of spec.md §4.4.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateCommissionerPending
	StateCommissionerActive
	StateDatasetRequested
	StateIdle
	StateFaulted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	case StateCommissionerPending:
		return "CommissionerPending"
	case StateCommissionerActive:
		return "CommissionerActive"
	case StateDatasetRequested:
		return "DatasetRequested"
	case StateIdle:
		return "Idle"
	case StateFaulted:
		return "Faulted"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

package paperless

// JobState is the processing state of an ingestion job as reported by the
// remote task endpoint. The authoritative state lives entirely in the remote
// service; this is only a snapshot from the latest status lookup.
type JobState string

const (
	StatePending   JobState = "PENDING"
	StateRunning   JobState = "RUNNING"
	StateSucceeded JobState = "SUCCEEDED"
	StateFailed    JobState = "FAILED"
	StateCancelled JobState = "CANCELLED"
)

// stateFromRemote maps the remote service's status strings onto JobState.
// Unrecognized or missing values map to StatePending so that newer remote
// versions introducing extra intermediate states keep the poll loop going
// instead of failing the upload.
func stateFromRemote(status string) JobState {
	switch status {
	case "SUCCESS":
		return StateSucceeded
	case "FAILURE":
		return StateFailed
	case "REVOKED":
		return StateCancelled
	case "STARTED":
		return StateRunning
	default:
		return StatePending
	}
}

// Terminal reports whether no further state changes can follow
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

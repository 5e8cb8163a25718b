package model

// ProcessStatus is the lifecycle state of a deployment process.
type ProcessStatus string

const (
	StatusInit       ProcessStatus = "INIT"
	StatusPending    ProcessStatus = "PENDING"
	StatusInProgress ProcessStatus = "IN_PROGRESS"
	StatusDone       ProcessStatus = "DONE"
)

// ValidStatus reports whether s is one of the four process states.
func ValidStatus(s ProcessStatus) bool {
	switch s {
	case StatusInit, StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// nextStatus is the forward-only transition table. Operators can bypass it
// with an explicit force flag; see ProcessService.SetStatus.
var nextStatus = map[ProcessStatus]ProcessStatus{
	StatusInit:       StatusPending,
	StatusPending:    StatusInProgress,
	StatusInProgress: StatusDone,
}

// CanTransition reports whether moving from to target follows the forward
// order INIT -> PENDING -> IN_PROGRESS -> DONE. Setting the same status
// again is allowed.
func CanTransition(from, to ProcessStatus) bool {
	if from == to {
		return true
	}
	return nextStatus[from] == to
}

package model

import "time"

// ProcessMember assigns a deployment person to a process.
type ProcessMember struct {
	ProcessID int64     `json:"process_id" db:"process_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PhaseMember assigns a process member to a single phase. Phase membership is
// always a subset of the parent process membership.
type PhaseMember struct {
	PhaseID   int64     `json:"phase_id" db:"phase_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

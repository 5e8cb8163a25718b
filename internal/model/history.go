package model

import "time"

// PhaseUpdateHistory is an append-only record written whenever a phase's
// actual dates change. Entries are immutable snapshots; IsDone is stored here
// (unlike on the live phase) because it captures the state at update time.
type PhaseUpdateHistory struct {
	ID              int64      `json:"id" db:"id"`
	PhaseID         int64      `json:"phase_id" db:"phase_id"`
	ProcessID       int64      `json:"process_id" db:"process_id"`
	NumOrder        int        `json:"num_order" db:"num_order"`
	PhaseName       string     `json:"phase_name" db:"phase_name"`
	Description     string     `json:"description" db:"description"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty" db:"actual_start_date"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty" db:"actual_end_date"`
	IsDone          bool       `json:"is_done" db:"is_done"`
	UpdatedBy       int64      `json:"updated_by" db:"updated_by"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

package model

import (
	"encoding/json"
	"time"
)

// DeploymentPhase is an ordered step within a deployment process. NumOrder is
// unique within the owning process and defines execution order.
type DeploymentPhase struct {
	ID               int64      `json:"id" db:"id"`
	ProcessID        int64      `json:"process_id" db:"process_id"`
	TypeID           int64      `json:"type_id" db:"type_id"`
	NumOrder         int        `json:"num_order" db:"num_order"`
	Description      string     `json:"description" db:"description"`
	PlannedStartDate time.Time  `json:"planned_start_date" db:"planned_start_date"`
	PlannedEndDate   time.Time  `json:"planned_end_date" db:"planned_end_date"`
	ActualStartDate  *time.Time `json:"actual_start_date,omitempty" db:"actual_start_date"`
	ActualEndDate    *time.Time `json:"actual_end_date,omitempty" db:"actual_end_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// IsDone is derived from the actual end date and never stored.
func (p *DeploymentPhase) IsDone() bool {
	return p.ActualEndDate != nil
}

// Started reports whether the phase has an actual start date.
func (p *DeploymentPhase) Started() bool {
	return p.ActualStartDate != nil
}

// MarshalJSON includes the derived is_done field in API payloads.
func (p DeploymentPhase) MarshalJSON() ([]byte, error) {
	type alias DeploymentPhase
	return json.Marshal(struct {
		alias
		IsDone bool `json:"is_done"`
	}{alias(p), p.ActualEndDate != nil})
}

// PhaseType is a reusable, per-owner catalog entry typing deployment phases.
type PhaseType struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

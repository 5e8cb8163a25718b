package request

import "time"

// CreatePhase is the request body for adding a phase to a process.
type CreatePhase struct {
	TypeID           int64     `json:"type_id" validate:"required,gt=0"`
	NumOrder         int       `json:"num_order" validate:"gte=0"`
	Description      string    `json:"description"`
	PlannedStartDate time.Time `json:"planned_start_date" validate:"required"`
	PlannedEndDate   time.Time `json:"planned_end_date" validate:"required"`
}

// UpdatePhaseDates edits the planned window of a phase during setup.
type UpdatePhaseDates struct {
	PlannedStartDate time.Time `json:"planned_start_date" validate:"required"`
	PlannedEndDate   time.Time `json:"planned_end_date" validate:"required"`
}

// CompletePhase closes out a phase. Uploads arrive as multipart form files
// alongside this JSON part; AttachmentIDs reference already-stored files.
type CompletePhase struct {
	Description   string  `json:"description"`
	AttachmentIDs []int64 `json:"attachment_ids" validate:"dive,gt=0"`
}

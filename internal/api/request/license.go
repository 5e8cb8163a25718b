package request

// CreateLicense is the request body for issuing a license on a completed
// process.
type CreateLicense struct {
	StartTimeMs            int64  `json:"start_time_ms" validate:"required,gt=0"`
	EndTimeMs              int64  `json:"end_time_ms" validate:"required,gt=0"`
	ExpireAlertIntervalDay *int   `json:"expire_alert_interval_day" validate:"required,gte=0,lte=100"`
	Description            string `json:"description"`
}

// UpdateLicense edits the mutable license fields. Omitted fields keep their
// stored value.
type UpdateLicense struct {
	Description            *string `json:"description"`
	ExpireAlertIntervalDay *int    `json:"expire_alert_interval_day" validate:"omitempty,gte=0,lte=100"`
}

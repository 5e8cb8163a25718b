package model

import "time"

// SoftwareLicense is issued for a completed deployment process. Start and end
// times are immutable after creation; description and the alert interval can
// be edited.
type SoftwareLicense struct {
	ID                     int64     `json:"id" db:"id"`
	ProcessID              int64     `json:"process_id" db:"process_id"`
	Description            string    `json:"description" db:"description"`
	StartTimeMs            int64     `json:"start_time_ms" db:"start_time_ms"`
	EndTimeMs              int64     `json:"end_time_ms" db:"end_time_ms"`
	ExpireAlertIntervalDay int       `json:"expire_alert_interval_day" db:"expire_alert_interval_day"`
	CreatedBy              int64     `json:"created_by" db:"created_by"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// LicenseDetail is the enriched read that cross-references the user directory.
type LicenseDetail struct {
	SoftwareLicense
	CreatedByUser *User `json:"created_by_user,omitempty"`
}

// ExpiryAlert is the tuple the expiry notifier consumes.
type ExpiryAlert struct {
	LicenseID              int64 `json:"license_id"`
	ProcessID              int64 `json:"process_id"`
	EndTimeMs              int64 `json:"end_time_ms"`
	ExpireAlertIntervalDay int   `json:"expire_alert_interval_day"`
}

// AlertAtMs is the instant the license enters its alert window.
func (a ExpiryAlert) AlertAtMs() int64 {
	return a.EndTimeMs - int64(a.ExpireAlertIntervalDay)*24*60*60*1000
}

package model

import "time"

// DeploymentProcess is the top-level unit of rolling a software version out
// to a customer.
type DeploymentProcess struct {
	ID                int64         `json:"id" db:"id"`
	Status            ProcessStatus `json:"status" db:"status"`
	CustomerID        int64         `json:"customer_id" db:"customer_id"`
	SoftwareVersionID int64         `json:"software_version_id" db:"software_version_id"`
	CreatedBy         int64         `json:"created_by" db:"created_by"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

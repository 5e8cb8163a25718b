package model

import "time"

// SoftwareVersion is a releasable version of a software product.
type SoftwareVersion struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Version   string    `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ModuleVersion is a versioned module belonging to a software version. A
// deployment process pins a selection of these.
type ModuleVersion struct {
	ID                int64     `json:"id" db:"id"`
	SoftwareVersionID int64     `json:"software_version_id" db:"software_version_id"`
	Name              string    `json:"name" db:"name"`
	Version           string    `json:"version" db:"version"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

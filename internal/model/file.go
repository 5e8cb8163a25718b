package model

import "time"

// File is uploaded blob metadata. The bytes themselves live in the external
// object store under ObjectKey.
type File struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	SizeBytes int64     `json:"size_bytes" db:"size_bytes"`
	MimeType  string    `json:"mime_type" db:"mime_type"`
	ObjectKey string    `json:"-" db:"object_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

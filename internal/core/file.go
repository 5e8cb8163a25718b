package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

// FileService records metadata for blobs held in external storage. Content
// goes through the blob store; only the opaque object key is kept here.
type FileService struct {
	db DB
}

func NewFileService(db DB) *FileService {
	return &FileService{db: db}
}

// Register stores the metadata of an uploaded blob and returns the file row.
func (s *FileService) Register(ctx context.Context, name, mimeType string, sizeBytes int64, objectKey string) (*model.File, error) {
	if name == "" {
		return nil, validationf("file name is required")
	}

	f := &model.File{Name: name, SizeBytes: sizeBytes, MimeType: mimeType, ObjectKey: objectKey}
	err := s.db.QueryRow(ctx,
		`INSERT INTO files (name, size_bytes, mime_type, object_key, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING id, created_at`,
		f.Name, f.SizeBytes, f.MimeType, f.ObjectKey,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("register file: %w", err)
	}
	return f, nil
}

func (s *FileService) GetByID(ctx context.Context, id int64) (*model.File, error) {
	var f model.File
	err := s.db.QueryRow(ctx,
		"SELECT id, name, size_bytes, mime_type, object_key, created_at FROM files WHERE id = $1", id,
	).Scan(&f.ID, &f.Name, &f.SizeBytes, &f.MimeType, &f.ObjectKey, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get file %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get file %d: %w", id, err)
	}
	return &f, nil
}

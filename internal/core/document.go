package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

// DocumentService manages document metadata. File content lives in the blob
// store and is linked through the attachment ledger.
type DocumentService struct {
	db DB
}

func NewDocumentService(db DB) *DocumentService {
	return &DocumentService{db: db}
}

func (s *DocumentService) Create(ctx context.Context, ownerID int64, title, description string) (*model.Document, error) {
	if title == "" {
		return nil, validationf("document title is required")
	}

	d := &model.Document{OwnerID: ownerID, Title: title, Description: description}
	err := s.db.QueryRow(ctx,
		`INSERT INTO documents (owner_id, title, description, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING id, created_at, updated_at`,
		d.OwnerID, d.Title, d.Description,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

func (s *DocumentService) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	var d model.Document
	err := s.db.QueryRow(ctx,
		"SELECT id, owner_id, title, description, created_at, updated_at FROM documents WHERE id = $1", id,
	).Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	return &d, nil
}

func (s *DocumentService) List(ctx context.Context, pageNumber, pageSize int) ([]model.Document, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM documents").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, owner_id, title, description, created_at, updated_at FROM documents ORDER BY id LIMIT $1 OFFSET $2",
		pageSize, pageNumber*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, total, nil
}

func (s *DocumentService) Update(ctx context.Context, id int64, title, description string) error {
	if title == "" {
		return validationf("document title is required")
	}

	tag, err := s.db.Exec(ctx,
		"UPDATE documents SET title = $1, description = $2, updated_at = now() WHERE id = $3",
		title, description, id,
	)
	if err != nil {
		return fmt.Errorf("update document %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("get document %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM document_attachments WHERE document_id = $1", id); err != nil {
		return fmt.Errorf("delete document %d attachments: %w", id, err)
	}
	if _, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	return nil
}

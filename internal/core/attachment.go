package core

import (
	"context"
	"fmt"

	"github.com/edvin/delivery/internal/model"
)

// AttachmentTarget identifies what kind of entity a file is linked to.
type AttachmentTarget string

const (
	TargetPhase    AttachmentTarget = "phase"
	TargetDocument AttachmentTarget = "document"
)

// attachmentTable maps a target kind to its link table and id column.
func attachmentTable(target AttachmentTarget) (table, column string, err error) {
	switch target {
	case TargetPhase:
		return "phase_attachments", "phase_id", nil
	case TargetDocument:
		return "document_attachments", "document_id", nil
	default:
		return "", "", validationf("unknown attachment target %q", target)
	}
}

// AttachmentService records which uploaded files are linked to a phase or a
// document. Link and Unlink are idempotent.
type AttachmentService struct {
	db  DB
	bus *Bus
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(db DB, bus *Bus) *AttachmentService {
	return &AttachmentService{db: db, bus: bus}
}

// Link attaches a file to the target. Linking an already-linked file is a
// no-op.
func (s *AttachmentService) Link(ctx context.Context, target AttachmentTarget, targetID, fileID int64) error {
	table, column, err := attachmentTable(target)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, file_id, created_at)
		 VALUES ($1, $2, now()) ON CONFLICT DO NOTHING`, table, column),
		targetID, fileID,
	)
	if err != nil {
		return fmt.Errorf("link file %d to %s %d: %w", fileID, target, targetID, err)
	}

	s.bus.Publish(Event{Entity: EntityAttachment, ID: targetID, Op: "link"})
	return nil
}

// Unlink detaches a file from the target. Unlinking an absent file is a
// no-op. The confirmation step required before unlinking is a UI-level
// safeguard, not enforced here.
func (s *AttachmentService) Unlink(ctx context.Context, target AttachmentTarget, targetID, fileID int64) error {
	table, column, err := attachmentTable(target)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND file_id = $2", table, column),
		targetID, fileID,
	)
	if err != nil {
		return fmt.Errorf("unlink file %d from %s %d: %w", fileID, target, targetID, err)
	}

	s.bus.Publish(Event{Entity: EntityAttachment, ID: targetID, Op: "unlink"})
	return nil
}

// List returns the metadata of every file linked to the target.
func (s *AttachmentService) List(ctx context.Context, target AttachmentTarget, targetID int64) ([]model.File, error) {
	table, column, err := attachmentTable(target)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT f.id, f.name, f.size_bytes, f.mime_type, f.object_key, f.created_at
		 FROM files f JOIN %s a ON a.file_id = f.id
		 WHERE a.%s = $1 ORDER BY f.id`, table, column),
		targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments for %s %d: %w", target, targetID, err)
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.Name, &f.SizeBytes, &f.MimeType, &f.ObjectKey, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return files, nil
}

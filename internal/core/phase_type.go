package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

// PhaseTypeService manages the per-owner catalog of reusable phase types.
type PhaseTypeService struct {
	db DB
}

func NewPhaseTypeService(db DB) *PhaseTypeService {
	return &PhaseTypeService{db: db}
}

func (s *PhaseTypeService) Create(ctx context.Context, ownerID int64, name, description string) (*model.PhaseType, error) {
	if name == "" {
		return nil, validationf("phase type name is required")
	}

	t := &model.PhaseType{OwnerID: ownerID, Name: name, Description: description}
	err := s.db.QueryRow(ctx,
		`INSERT INTO deployment_phase_types (owner_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING id, created_at, updated_at`,
		t.OwnerID, t.Name, t.Description,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create phase type: %w", err)
	}
	return t, nil
}

func (s *PhaseTypeService) GetByID(ctx context.Context, id, ownerID int64) (*model.PhaseType, error) {
	var t model.PhaseType
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, name, description, created_at, updated_at
		 FROM deployment_phase_types WHERE id = $1 AND owner_id = $2`, id, ownerID,
	).Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get phase type %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get phase type %d: %w", id, err)
	}
	return &t, nil
}

// ListByOwner returns a page of the owner's phase types and the total count.
func (s *PhaseTypeService) ListByOwner(ctx context.Context, ownerID int64, pageNumber, pageSize int) ([]model.PhaseType, int64, error) {
	var total int64
	err := s.db.QueryRow(ctx,
		"SELECT count(*) FROM deployment_phase_types WHERE owner_id = $1", ownerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count phase types: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, name, description, created_at, updated_at
		 FROM deployment_phase_types WHERE owner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		ownerID, pageSize, pageNumber*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list phase types: %w", err)
	}
	defer rows.Close()

	var types []model.PhaseType
	for rows.Next() {
		var t model.PhaseType
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan phase type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate phase types: %w", err)
	}
	return types, total, nil
}

func (s *PhaseTypeService) Update(ctx context.Context, id, ownerID int64, name, description string) error {
	if name == "" {
		return validationf("phase type name is required")
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE deployment_phase_types SET name = $1, description = $2, updated_at = now()
		 WHERE id = $3 AND owner_id = $4`,
		name, description, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update phase type %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("get phase type %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a phase type no phase references.
func (s *PhaseTypeService) Delete(ctx context.Context, id, ownerID int64) error {
	var used bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM deployment_phases WHERE type_id = $1)", id,
	).Scan(&used)
	if err != nil {
		return fmt.Errorf("check phase type %d usage: %w", id, err)
	}
	if used {
		return constraintf("phase type %d is in use by existing phases", id)
	}

	_, err = s.db.Exec(ctx,
		"DELETE FROM deployment_phase_types WHERE id = $1 AND owner_id = $2", id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete phase type %d: %w", id, err)
	}
	return nil
}

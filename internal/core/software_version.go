package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

// SoftwareVersionService manages the software and module version catalogs.
type SoftwareVersionService struct {
	db DB
}

func NewSoftwareVersionService(db DB) *SoftwareVersionService {
	return &SoftwareVersionService{db: db}
}

func (s *SoftwareVersionService) Create(ctx context.Context, name, version string) (*model.SoftwareVersion, error) {
	if name == "" || version == "" {
		return nil, validationf("software name and version are required")
	}

	sv := &model.SoftwareVersion{Name: name, Version: version}
	err := s.db.QueryRow(ctx,
		`INSERT INTO software_versions (name, version, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 RETURNING id, created_at, updated_at`,
		sv.Name, sv.Version,
	).Scan(&sv.ID, &sv.CreatedAt, &sv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create software version: %w", err)
	}
	return sv, nil
}

func (s *SoftwareVersionService) GetByID(ctx context.Context, id int64) (*model.SoftwareVersion, error) {
	var sv model.SoftwareVersion
	err := s.db.QueryRow(ctx,
		"SELECT id, name, version, created_at, updated_at FROM software_versions WHERE id = $1", id,
	).Scan(&sv.ID, &sv.Name, &sv.Version, &sv.CreatedAt, &sv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get software version %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get software version %d: %w", id, err)
	}
	return &sv, nil
}

func (s *SoftwareVersionService) List(ctx context.Context, pageNumber, pageSize int) ([]model.SoftwareVersion, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM software_versions").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count software versions: %w", err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, name, version, created_at, updated_at FROM software_versions ORDER BY id LIMIT $1 OFFSET $2",
		pageSize, pageNumber*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list software versions: %w", err)
	}
	defer rows.Close()

	var versions []model.SoftwareVersion
	for rows.Next() {
		var sv model.SoftwareVersion
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.Version, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan software version: %w", err)
		}
		versions = append(versions, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate software versions: %w", err)
	}
	return versions, total, nil
}

// AddModuleVersion registers a module version under a software version.
func (s *SoftwareVersionService) AddModuleVersion(ctx context.Context, softwareVersionID int64, name, version string) (*model.ModuleVersion, error) {
	if name == "" || version == "" {
		return nil, validationf("module name and version are required")
	}

	mv := &model.ModuleVersion{SoftwareVersionID: softwareVersionID, Name: name, Version: version}
	err := s.db.QueryRow(ctx,
		`INSERT INTO module_versions (software_version_id, name, version, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING id, created_at, updated_at`,
		mv.SoftwareVersionID, mv.Name, mv.Version,
	).Scan(&mv.ID, &mv.CreatedAt, &mv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create module version: %w", err)
	}
	return mv, nil
}

// ListModuleVersions returns all module versions of a software version.
func (s *SoftwareVersionService) ListModuleVersions(ctx context.Context, softwareVersionID int64) ([]model.ModuleVersion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, software_version_id, name, version, created_at, updated_at
		 FROM module_versions WHERE software_version_id = $1 ORDER BY id`,
		softwareVersionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list module versions for software version %d: %w", softwareVersionID, err)
	}
	defer rows.Close()

	var modules []model.ModuleVersion
	for rows.Next() {
		var mv model.ModuleVersion
		if err := rows.Scan(&mv.ID, &mv.SoftwareVersionID, &mv.Name, &mv.Version, &mv.CreatedAt, &mv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan module version: %w", err)
		}
		modules = append(modules, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate module versions: %w", err)
	}
	return modules, nil
}

func (s *SoftwareVersionService) Delete(ctx context.Context, id int64) error {
	var used bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM deployment_processes WHERE software_version_id = $1)", id,
	).Scan(&used)
	if err != nil {
		return fmt.Errorf("check software version %d usage: %w", id, err)
	}
	if used {
		return constraintf("software version %d has deployment processes", id)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM module_versions WHERE software_version_id = $1", id); err != nil {
		return fmt.Errorf("delete module versions of software version %d: %w", id, err)
	}
	if _, err := s.db.Exec(ctx, "DELETE FROM software_versions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete software version %d: %w", id, err)
	}
	return nil
}

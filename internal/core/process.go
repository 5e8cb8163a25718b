package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

// ProcessService owns the DeploymentProcess aggregate and its state machine.
type ProcessService struct {
	db  DB
	bus *Bus
}

// NewProcessService creates a new ProcessService.
func NewProcessService(db DB, bus *Bus) *ProcessService {
	return &ProcessService{db: db, bus: bus}
}

// Create opens a new deployment process in INIT for the given customer and
// software version with the selected module versions. The creating operator
// becomes the first process member.
func (s *ProcessService) Create(ctx context.Context, customerID, softwareVersionID int64, moduleVersionIDs []int64, actorID int64) (*model.DeploymentProcess, error) {
	if customerID == 0 {
		return nil, validationf("customer is required")
	}
	if softwareVersionID == 0 {
		return nil, validationf("software version is required")
	}
	if len(moduleVersionIDs) == 0 {
		return nil, validationf("module selection is empty")
	}

	p := &model.DeploymentProcess{
		Status:            model.StatusInit,
		CustomerID:        customerID,
		SoftwareVersionID: softwareVersionID,
		CreatedBy:         actorID,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO deployment_processes (status, customer_id, software_version_id, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 RETURNING id, created_at, updated_at`,
		p.Status, p.CustomerID, p.SoftwareVersionID, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create process: %w", err)
	}

	for _, mvID := range moduleVersionIDs {
		_, err := s.db.Exec(ctx,
			`INSERT INTO process_module_versions (process_id, module_version_id)
			 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			p.ID, mvID,
		)
		if err != nil {
			return nil, fmt.Errorf("add module version %d to process %d: %w", mvID, p.ID, err)
		}
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO process_members (process_id, user_id, created_at)
		 VALUES ($1, $2, now()) ON CONFLICT DO NOTHING`,
		p.ID, actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("add creator to process %d members: %w", p.ID, err)
	}

	s.bus.Publish(Event{Entity: EntityProcess, ID: p.ID, Op: "create"})
	return p, nil
}

// SetStatus moves the process to target. Transitions follow the forward
// order INIT -> PENDING -> IN_PROGRESS -> DONE unless force is set, which
// preserves the operator's manual override.
func (s *ProcessService) SetStatus(ctx context.Context, id int64, target model.ProcessStatus, force bool) error {
	if !model.ValidStatus(target) {
		return validationf("invalid process status %q", target)
	}

	var current model.ProcessStatus
	err := s.db.QueryRow(ctx,
		"SELECT status FROM deployment_processes WHERE id = $1", id,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("get process %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get process %d status: %w", id, err)
	}

	if !force && !model.CanTransition(current, target) {
		return constraintf("process %d cannot move from %s to %s", id, current, target)
	}

	_, err = s.db.Exec(ctx,
		"UPDATE deployment_processes SET status = $1, updated_at = now() WHERE id = $2",
		target, id,
	)
	if err != nil {
		return fmt.Errorf("set process %d status: %w", id, err)
	}

	s.bus.Publish(Event{Entity: EntityProcess, ID: id, Op: "status"})
	return nil
}

// GetByID retrieves a process by its ID.
func (s *ProcessService) GetByID(ctx context.Context, id int64) (*model.DeploymentProcess, error) {
	var p model.DeploymentProcess
	err := s.db.QueryRow(ctx,
		`SELECT id, status, customer_id, software_version_id, created_by, created_at, updated_at
		 FROM deployment_processes WHERE id = $1`, id,
	).Scan(&p.ID, &p.Status, &p.CustomerID, &p.SoftwareVersionID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get process %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get process %d: %w", id, err)
	}
	return &p, nil
}

// List returns a page of processes ordered by ID along with the total count.
func (s *ProcessService) List(ctx context.Context, pageNumber, pageSize int) ([]model.DeploymentProcess, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM deployment_processes").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count processes: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, status, customer_id, software_version_id, created_by, created_at, updated_at
		 FROM deployment_processes ORDER BY id LIMIT $1 OFFSET $2`,
		pageSize, pageNumber*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	var procs []model.DeploymentProcess
	for rows.Next() {
		var p model.DeploymentProcess
		if err := rows.Scan(&p.ID, &p.Status, &p.CustomerID, &p.SoftwareVersionID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan process: %w", err)
		}
		procs = append(procs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate processes: %w", err)
	}
	return procs, total, nil
}

// ModuleVersionIDs returns the module selection pinned at process creation.
func (s *ProcessService) ModuleVersionIDs(ctx context.Context, processID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		"SELECT module_version_id FROM process_module_versions WHERE process_id = $1 ORDER BY module_version_id",
		processID,
	)
	if err != nil {
		return nil, fmt.Errorf("list process %d module versions: %w", processID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan module version id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate module version ids: %w", err)
	}
	return ids, nil
}

// MemberIDs returns the user IDs assigned to the process.
func (s *ProcessService) MemberIDs(ctx context.Context, processID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		"SELECT user_id FROM process_members WHERE process_id = $1 ORDER BY user_id",
		processID,
	)
	if err != nil {
		return nil, fmt.Errorf("list process %d member ids: %w", processID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member ids: %w", err)
	}
	return ids, nil
}

// Delete removes a process that no phase or license references.
func (s *ProcessService) Delete(ctx context.Context, id int64) error {
	var phases, licenses int64
	err := s.db.QueryRow(ctx,
		`SELECT
		   (SELECT count(*) FROM deployment_phases WHERE process_id = $1),
		   (SELECT count(*) FROM software_licenses WHERE process_id = $1)`,
		id,
	).Scan(&phases, &licenses)
	if err != nil {
		return fmt.Errorf("check process %d references: %w", id, err)
	}
	if phases > 0 || licenses > 0 {
		return constraintf("process %d is referenced by %d phase(s) and %d license(s)", id, phases, licenses)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM process_members WHERE process_id = $1", id); err != nil {
		return fmt.Errorf("delete process %d members: %w", id, err)
	}
	if _, err := s.db.Exec(ctx, "DELETE FROM process_module_versions WHERE process_id = $1", id); err != nil {
		return fmt.Errorf("delete process %d module selection: %w", id, err)
	}
	if _, err := s.db.Exec(ctx, "DELETE FROM deployment_processes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete process %d: %w", id, err)
	}

	s.bus.Publish(Event{Entity: EntityProcess, ID: id, Op: "delete"})
	return nil
}

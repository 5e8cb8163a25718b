package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

const licenseColumns = `id, process_id, description, start_time_ms, end_time_ms, expire_alert_interval_day, created_by, created_at, updated_at`

// msPerDay converts the alert interval to the license time scale.
const msPerDay = int64(24 * 60 * 60 * 1000)

// LicenseService gates and manages software licenses for completed
// deployment processes.
type LicenseService struct {
	db  DB
	bus *Bus
}

// NewLicenseService creates a new LicenseService.
func NewLicenseService(db DB, bus *Bus) *LicenseService {
	return &LicenseService{db: db, bus: bus}
}

// CanIssue reports whether a license may be created for the process: the
// process status must be DONE and every phase must be done. The predicate is
// advisory with respect to concurrent writers; it is not serialized against
// them.
func (s *LicenseService) CanIssue(ctx context.Context, processID int64) (bool, error) {
	var status model.ProcessStatus
	err := s.db.QueryRow(ctx,
		"SELECT status FROM deployment_processes WHERE id = $1", processID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("get process %d: %w", processID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("get process %d status: %w", processID, err)
	}
	if status != model.StatusDone {
		return false, nil
	}

	var undone bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM deployment_phases WHERE process_id = $1 AND actual_end_date IS NULL)",
		processID,
	).Scan(&undone)
	if err != nil {
		return false, fmt.Errorf("check phases of process %d: %w", processID, err)
	}
	return !undone, nil
}

// Create issues a license for a process that passes the gating predicate.
// The time window and alert interval are validated before any write.
func (s *LicenseService) Create(ctx context.Context, processID, startTimeMs, endTimeMs int64, expireAlertIntervalDay int, description string, actorID int64) (*model.SoftwareLicense, error) {
	if startTimeMs >= endTimeMs {
		return nil, validationf("license start time must be before end time")
	}
	if expireAlertIntervalDay < 0 || expireAlertIntervalDay > 100 {
		return nil, validationf("expire alert interval must be between 0 and 100 days")
	}

	ok, err := s.CanIssue(ctx, processID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, constraintf("process %d is not eligible for a license: status must be DONE with all phases done", processID)
	}

	l := &model.SoftwareLicense{
		ProcessID:              processID,
		Description:            description,
		StartTimeMs:            startTimeMs,
		EndTimeMs:              endTimeMs,
		ExpireAlertIntervalDay: expireAlertIntervalDay,
		CreatedBy:              actorID,
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO software_licenses (process_id, description, start_time_ms, end_time_ms, expire_alert_interval_day, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING id, created_at, updated_at`,
		l.ProcessID, l.Description, l.StartTimeMs, l.EndTimeMs, l.ExpireAlertIntervalDay, l.CreatedBy,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create license: %w", err)
	}

	s.bus.Publish(Event{Entity: EntityLicense, ID: l.ID, Op: "create"})
	return l, nil
}

// Update edits the description and alert interval. Start and end time are
// immutable after creation.
func (s *LicenseService) Update(ctx context.Context, licenseID int64, description *string, expireAlertIntervalDay *int) error {
	if expireAlertIntervalDay != nil && (*expireAlertIntervalDay < 0 || *expireAlertIntervalDay > 100) {
		return validationf("expire alert interval must be between 0 and 100 days")
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE software_licenses
		 SET description = COALESCE($1, description),
		     expire_alert_interval_day = COALESCE($2, expire_alert_interval_day),
		     updated_at = now()
		 WHERE id = $3`,
		description, expireAlertIntervalDay, licenseID,
	)
	if err != nil {
		return fmt.Errorf("update license %d: %w", licenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("get license %d: %w", licenseID, ErrNotFound)
	}

	s.bus.Publish(Event{Entity: EntityLicense, ID: licenseID, Op: "update"})
	return nil
}

// GetByID retrieves a license by its ID.
func (s *LicenseService) GetByID(ctx context.Context, id int64) (*model.SoftwareLicense, error) {
	var l model.SoftwareLicense
	err := s.db.QueryRow(ctx,
		"SELECT "+licenseColumns+" FROM software_licenses WHERE id = $1", id,
	).Scan(&l.ID, &l.ProcessID, &l.Description, &l.StartTimeMs, &l.EndTimeMs,
		&l.ExpireAlertIntervalDay, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get license %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get license %d: %w", id, err)
	}
	return &l, nil
}

// Detail is the enriched read cross-referencing the user directory for the
// issuing user.
func (s *LicenseService) Detail(ctx context.Context, id int64) (*model.LicenseDetail, error) {
	license, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.LicenseDetail{SoftwareLicense: *license}
	var u model.User
	err = s.db.QueryRow(ctx,
		"SELECT id, name, email, role, created_at, updated_at FROM users WHERE id = $1",
		license.CreatedBy,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == nil {
		detail.CreatedByUser = &u
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get license %d issuer: %w", id, err)
	}
	return detail, nil
}

// ListByProcess returns a page of the process's licenses and the total count.
func (s *LicenseService) ListByProcess(ctx context.Context, processID int64, pageNumber, pageSize int) ([]model.SoftwareLicense, int64, error) {
	var total int64
	err := s.db.QueryRow(ctx,
		"SELECT count(*) FROM software_licenses WHERE process_id = $1", processID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count licenses for process %d: %w", processID, err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT "+licenseColumns+" FROM software_licenses WHERE process_id = $1 ORDER BY id LIMIT $2 OFFSET $3",
		processID, pageSize, pageNumber*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list licenses for process %d: %w", processID, err)
	}
	defer rows.Close()

	licenses, err := scanLicenses(rows)
	if err != nil {
		return nil, 0, err
	}
	return licenses, total, nil
}

// ListExpiring returns licenses whose alert window has opened: licenses where
// now >= end time minus the alert interval.
func (s *LicenseService) ListExpiring(ctx context.Context, nowMs int64) ([]model.SoftwareLicense, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+licenseColumns+` FROM software_licenses
		 WHERE end_time_ms - expire_alert_interval_day * $2 <= $1
		 ORDER BY end_time_ms`,
		nowMs, msPerDay,
	)
	if err != nil {
		return nil, fmt.Errorf("list expiring licenses: %w", err)
	}
	defer rows.Close()

	return scanLicenses(rows)
}

func scanLicenses(rows pgx.Rows) ([]model.SoftwareLicense, error) {
	var licenses []model.SoftwareLicense
	for rows.Next() {
		var l model.SoftwareLicense
		if err := rows.Scan(&l.ID, &l.ProcessID, &l.Description, &l.StartTimeMs, &l.EndTimeMs,
			&l.ExpireAlertIntervalDay, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		licenses = append(licenses, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate licenses: %w", err)
	}
	return licenses, nil
}

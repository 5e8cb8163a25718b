package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/delivery/internal/model"
)

// uploadParallelism bounds the evidence upload/link fan-out.
const uploadParallelism = 4

// BlobStore is the external file-storage collaborator. Upload returns the
// opaque object key the file was stored under.
type BlobStore interface {
	Upload(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

// EvidenceFile is a file uploaded while completing a phase.
type EvidenceFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// CompletionResult tracks the per-step outcome of the compound phase
// completion: the date write, the evidence links, and the history append.
// Partial failure is observable here instead of being swallowed.
type CompletionResult struct {
	PhaseID         int64 `json:"phase_id"`
	DateUpdated     bool  `json:"date_updated"`
	FilesTotal      int   `json:"files_total"`
	FilesLinked     int   `json:"files_linked"`
	HistoryAppended bool  `json:"history_appended"`
}

// PhaseService owns phase ordering, planned/actual date tracking, and the
// start/complete transitions within a process.
type PhaseService struct {
	db   DB
	bus  *Bus
	blob BlobStore
}

// NewPhaseService creates a new PhaseService.
func NewPhaseService(db DB, bus *Bus, blob BlobStore) *PhaseService {
	return &PhaseService{db: db, bus: bus, blob: blob}
}

// Add appends a phase to a process still in INIT. num_order must be unused
// within the process and the planned dates must be ordered.
func (s *PhaseService) Add(ctx context.Context, processID, typeID int64, numOrder int, plannedStart, plannedEnd time.Time, description string) (*model.DeploymentPhase, error) {
	if numOrder < 0 {
		return nil, validationf("num_order must not be negative")
	}
	if plannedEnd.Before(plannedStart) {
		return nil, validationf("planned end date is before planned start date")
	}

	status, err := s.processStatus(ctx, processID)
	if err != nil {
		return nil, err
	}
	if status != model.StatusInit {
		return nil, constraintf("phases can only be added while process %d is INIT (current: %s)", processID, status)
	}

	var taken bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM deployment_phases WHERE process_id = $1 AND num_order = $2)",
		processID, numOrder,
	).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("check num_order for process %d: %w", processID, err)
	}
	if taken {
		return nil, constraintf("num_order %d is already used in process %d", numOrder, processID)
	}

	p := &model.DeploymentPhase{
		ProcessID:        processID,
		TypeID:           typeID,
		NumOrder:         numOrder,
		Description:      description,
		PlannedStartDate: plannedStart,
		PlannedEndDate:   plannedEnd,
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO deployment_phases (process_id, type_id, num_order, description, planned_start_date, planned_end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING id, created_at, updated_at`,
		p.ProcessID, p.TypeID, p.NumOrder, p.Description, p.PlannedStartDate, p.PlannedEndDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create phase: %w", err)
	}

	s.bus.Publish(Event{Entity: EntityPhase, ID: p.ID, Op: "create"})
	return p, nil
}

// UpdatePlannedDates edits the planned window of a phase during setup.
func (s *PhaseService) UpdatePlannedDates(ctx context.Context, phaseID int64, plannedStart, plannedEnd time.Time) error {
	if plannedEnd.Before(plannedStart) {
		return validationf("planned end date is before planned start date")
	}

	phase, status, _, err := s.loadPhase(ctx, phaseID)
	if err != nil {
		return err
	}
	if status != model.StatusInit {
		return constraintf("planned dates can only be edited while process %d is INIT (current: %s)", phase.ProcessID, status)
	}

	_, err = s.db.Exec(ctx,
		"UPDATE deployment_phases SET planned_start_date = $1, planned_end_date = $2, updated_at = now() WHERE id = $3",
		plannedStart, plannedEnd, phaseID,
	)
	if err != nil {
		return fmt.Errorf("update phase %d planned dates: %w", phaseID, err)
	}

	s.bus.Publish(Event{Entity: EntityPhase, ID: phaseID, Op: "update"})
	return nil
}

// Start sets the actual start date of a phase. The caller must be a member of
// the phase and the owning process must be IN_PROGRESS.
func (s *PhaseService) Start(ctx context.Context, phaseID, actorID int64) (*model.DeploymentPhase, error) {
	phase, status, typeName, err := s.loadPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	if phase.Started() {
		return nil, constraintf("phase %d is already started", phaseID)
	}
	if status != model.StatusInProgress {
		return nil, constraintf("phase %d cannot start while process %d is %s", phaseID, phase.ProcessID, status)
	}

	member, err := s.isPhaseMember(ctx, phaseID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, constraintf("user %d is not a member of phase %d", actorID, phaseID)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(ctx,
		"UPDATE deployment_phases SET actual_start_date = $1, updated_at = now() WHERE id = $2",
		now, phaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("start phase %d: %w", phaseID, err)
	}
	phase.ActualStartDate = &now

	if err := s.appendHistory(ctx, phase, typeName, actorID, now); err != nil {
		return phase, &PartialFailure{Op: fmt.Sprintf("start phase %d", phaseID), Errs: []error{err}}
	}

	s.bus.Publish(Event{Entity: EntityPhase, ID: phaseID, Op: "start"})
	return phase, nil
}

// Complete marks a started phase done, links the supplied evidence, and
// appends one history entry. The date write commits first and is never rolled
// back: upload or link failures surface as a PartialFailure alongside the
// result, and callers may re-attempt attaching files afterward.
func (s *PhaseService) Complete(ctx context.Context, phaseID, actorID int64, description string, uploads []EvidenceFile, attachmentIDs []int64) (*CompletionResult, error) {
	phase, _, typeName, err := s.loadPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	if !phase.Started() {
		return nil, constraintf("phase %d has not been started", phaseID)
	}
	if phase.IsDone() {
		return nil, constraintf("phase %d is already done", phaseID)
	}

	member, err := s.isPhaseMember(ctx, phaseID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, constraintf("user %d is not a member of phase %d", actorID, phaseID)
	}

	result := &CompletionResult{
		PhaseID:    phaseID,
		FilesTotal: len(uploads) + len(attachmentIDs),
	}

	now := time.Now().UTC()
	if description == "" {
		description = phase.Description
	}
	_, err = s.db.Exec(ctx,
		"UPDATE deployment_phases SET actual_end_date = $1, description = $2, updated_at = now() WHERE id = $3",
		now, description, phaseID,
	)
	if err != nil {
		return result, fmt.Errorf("complete phase %d: %w", phaseID, err)
	}
	result.DateUpdated = true
	phase.ActualEndDate = &now
	phase.Description = description

	var depErrs []error

	// Upload all evidence files with unordered parallel fan-out, then link
	// every resolved file id. A failed upload or link never compensates the
	// date write above.
	fileIDs := make([]int64, len(uploads))
	uploadErrs := make([]error, len(uploads))
	var g errgroup.Group
	g.SetLimit(uploadParallelism)
	for i, f := range uploads {
		g.Go(func() error {
			key, err := s.blob.Upload(ctx, f.Name, f.MimeType, f.Data)
			if err != nil {
				uploadErrs[i] = fmt.Errorf("upload %s: %w", f.Name, err)
				return nil
			}
			err = s.db.QueryRow(ctx,
				`INSERT INTO files (name, size_bytes, mime_type, object_key, created_at)
				 VALUES ($1, $2, $3, $4, now()) RETURNING id`,
				f.Name, int64(len(f.Data)), f.MimeType, key,
			).Scan(&fileIDs[i])
			if err != nil {
				uploadErrs[i] = fmt.Errorf("register %s: %w", f.Name, err)
			}
			return nil
		})
	}
	g.Wait()

	var toLink []int64
	for i := range uploads {
		if uploadErrs[i] != nil {
			depErrs = append(depErrs, uploadErrs[i])
			continue
		}
		toLink = append(toLink, fileIDs[i])
	}
	toLink = append(toLink, attachmentIDs...)

	var mu sync.Mutex
	var lg errgroup.Group
	lg.SetLimit(uploadParallelism)
	for _, fileID := range toLink {
		lg.Go(func() error {
			_, err := s.db.Exec(ctx,
				`INSERT INTO phase_attachments (phase_id, file_id, created_at)
				 VALUES ($1, $2, now()) ON CONFLICT DO NOTHING`,
				phaseID, fileID,
			)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				depErrs = append(depErrs, fmt.Errorf("link file %d: %w", fileID, err))
				return nil
			}
			result.FilesLinked++
			return nil
		})
	}
	lg.Wait()

	if err := s.appendHistory(ctx, phase, typeName, actorID, now); err != nil {
		depErrs = append(depErrs, err)
	} else {
		result.HistoryAppended = true
	}

	s.bus.Publish(Event{Entity: EntityPhase, ID: phaseID, Op: "complete"})
	s.bus.Publish(Event{Entity: EntityAttachment, ID: phaseID, Op: "link"})

	if len(depErrs) > 0 {
		return result, &PartialFailure{Op: fmt.Sprintf("complete phase %d", phaseID), Errs: depErrs}
	}
	return result, nil
}

// Delete removes a not-yet-started phase during setup.
func (s *PhaseService) Delete(ctx context.Context, phaseID int64) error {
	phase, _, _, err := s.loadPhase(ctx, phaseID)
	if err != nil {
		return err
	}
	if phase.Started() {
		return constraintf("phase %d is already started", phaseID)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM deployment_phases WHERE id = $1", phaseID); err != nil {
		return fmt.Errorf("delete phase %d: %w", phaseID, err)
	}

	s.bus.Publish(Event{Entity: EntityPhase, ID: phaseID, Op: "delete"})
	return nil
}

// GetByID retrieves a single phase.
func (s *PhaseService) GetByID(ctx context.Context, phaseID int64) (*model.DeploymentPhase, error) {
	phase, _, _, err := s.loadPhase(ctx, phaseID)
	return phase, err
}

// ListByProcess returns the phases of a process in execution order.
func (s *PhaseService) ListByProcess(ctx context.Context, processID int64) ([]model.DeploymentPhase, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, process_id, type_id, num_order, description, planned_start_date, planned_end_date,
		        actual_start_date, actual_end_date, created_at, updated_at
		 FROM deployment_phases WHERE process_id = $1 ORDER BY num_order`,
		processID,
	)
	if err != nil {
		return nil, fmt.Errorf("list phases for process %d: %w", processID, err)
	}
	defer rows.Close()

	var phases []model.DeploymentPhase
	for rows.Next() {
		var p model.DeploymentPhase
		if err := rows.Scan(&p.ID, &p.ProcessID, &p.TypeID, &p.NumOrder, &p.Description,
			&p.PlannedStartDate, &p.PlannedEndDate, &p.ActualStartDate, &p.ActualEndDate,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phases: %w", err)
	}
	return phases, nil
}

// CurrentStep walks the phases in num_order and returns the first one that is
// not done. A nil phase means the process has no remaining work.
func (s *PhaseService) CurrentStep(ctx context.Context, processID int64) (*model.DeploymentPhase, error) {
	phases, err := s.ListByProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	for i := range phases {
		if !phases[i].IsDone() {
			return &phases[i], nil
		}
	}
	return nil, nil
}

// History returns the append-only update log for one phase, newest first.
func (s *PhaseService) History(ctx context.Context, phaseID int64) ([]model.PhaseUpdateHistory, error) {
	return s.history(ctx, "phase_id", phaseID)
}

// HistoryByProcess returns the update log across all phases of a process.
func (s *PhaseService) HistoryByProcess(ctx context.Context, processID int64) ([]model.PhaseUpdateHistory, error) {
	return s.history(ctx, "process_id", processID)
}

func (s *PhaseService) history(ctx context.Context, column string, id int64) ([]model.PhaseUpdateHistory, error) {
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT id, phase_id, process_id, num_order, phase_name, description,
		        actual_start_date, actual_end_date, is_done, updated_by, updated_at
		 FROM phase_update_history WHERE %s = $1 ORDER BY updated_at DESC, id DESC`, column),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list phase history by %s %d: %w", column, id, err)
	}
	defer rows.Close()

	var entries []model.PhaseUpdateHistory
	for rows.Next() {
		var h model.PhaseUpdateHistory
		if err := rows.Scan(&h.ID, &h.PhaseID, &h.ProcessID, &h.NumOrder, &h.PhaseName, &h.Description,
			&h.ActualStartDate, &h.ActualEndDate, &h.IsDone, &h.UpdatedBy, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}

// loadPhase fetches a phase together with its process status and type name.
func (s *PhaseService) loadPhase(ctx context.Context, phaseID int64) (*model.DeploymentPhase, model.ProcessStatus, string, error) {
	var p model.DeploymentPhase
	var status model.ProcessStatus
	var typeName string
	err := s.db.QueryRow(ctx,
		`SELECT ph.id, ph.process_id, ph.type_id, ph.num_order, ph.description,
		        ph.planned_start_date, ph.planned_end_date, ph.actual_start_date, ph.actual_end_date,
		        ph.created_at, ph.updated_at, pr.status, pt.name
		 FROM deployment_phases ph
		 JOIN deployment_processes pr ON pr.id = ph.process_id
		 JOIN deployment_phase_types pt ON pt.id = ph.type_id
		 WHERE ph.id = $1`, phaseID,
	).Scan(&p.ID, &p.ProcessID, &p.TypeID, &p.NumOrder, &p.Description,
		&p.PlannedStartDate, &p.PlannedEndDate, &p.ActualStartDate, &p.ActualEndDate,
		&p.CreatedAt, &p.UpdatedAt, &status, &typeName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", "", fmt.Errorf("get phase %d: %w", phaseID, ErrNotFound)
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("get phase %d: %w", phaseID, err)
	}
	return &p, status, typeName, nil
}

func (s *PhaseService) processStatus(ctx context.Context, processID int64) (model.ProcessStatus, error) {
	var status model.ProcessStatus
	err := s.db.QueryRow(ctx,
		"SELECT status FROM deployment_processes WHERE id = $1", processID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("get process %d: %w", processID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get process %d: %w", processID, err)
	}
	return status, nil
}

func (s *PhaseService) isPhaseMember(ctx context.Context, phaseID, userID int64) (bool, error) {
	var member bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM phase_members WHERE phase_id = $1 AND user_id = $2)",
		phaseID, userID,
	).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check phase %d membership: %w", phaseID, err)
	}
	return member, nil
}

// appendHistory writes one immutable snapshot of the phase's actual dates.
func (s *PhaseService) appendHistory(ctx context.Context, phase *model.DeploymentPhase, typeName string, actorID int64, at time.Time) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO phase_update_history
		   (phase_id, process_id, num_order, phase_name, description, actual_start_date, actual_end_date, is_done, updated_by, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		phase.ID, phase.ProcessID, phase.NumOrder, typeName, phase.Description,
		phase.ActualStartDate, phase.ActualEndDate, phase.IsDone(), actorID, at,
	)
	if err != nil {
		return fmt.Errorf("append history for phase %d: %w", phase.ID, err)
	}
	return nil
}

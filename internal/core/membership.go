package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

// MembershipService is the only write path for process and phase membership.
// It maintains the invariant that phase membership is a subset of the parent
// process membership.
type MembershipService struct {
	db  DB
	bus *Bus
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(db DB, bus *Bus) *MembershipService {
	return &MembershipService{db: db, bus: bus}
}

// AddProcessMember assigns a deployment person to a process.
func (s *MembershipService) AddProcessMember(ctx context.Context, processID, userID int64) error {
	var role string
	err := s.db.QueryRow(ctx, "SELECT role FROM users WHERE id = $1", userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("get user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get user %d: %w", userID, err)
	}
	if role != model.RoleDeploymentPerson {
		return constraintf("user %d does not hold the %s role", userID, model.RoleDeploymentPerson)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO process_members (process_id, user_id, created_at)
		 VALUES ($1, $2, now()) ON CONFLICT DO NOTHING`,
		processID, userID,
	)
	if err != nil {
		return fmt.Errorf("add user %d to process %d: %w", userID, processID, err)
	}

	s.bus.Publish(Event{Entity: EntityMembership, ID: processID, Op: "add"})
	return nil
}

// RemoveProcessMember removes a user from a process. Their phase memberships
// under that process go with them, keeping the subset invariant intact.
func (s *MembershipService) RemoveProcessMember(ctx context.Context, processID, userID int64) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM phase_members
		 WHERE user_id = $1 AND phase_id IN (SELECT id FROM deployment_phases WHERE process_id = $2)`,
		userID, processID,
	)
	if err != nil {
		return fmt.Errorf("remove user %d from phases of process %d: %w", userID, processID, err)
	}

	_, err = s.db.Exec(ctx,
		"DELETE FROM process_members WHERE process_id = $1 AND user_id = $2",
		processID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove user %d from process %d: %w", userID, processID, err)
	}

	s.bus.Publish(Event{Entity: EntityMembership, ID: processID, Op: "remove"})
	return nil
}

// AddPhaseMember assigns a process member to a phase. Users who are not
// members of the parent process are rejected.
func (s *MembershipService) AddPhaseMember(ctx context.Context, phaseID, userID int64) error {
	var processID int64
	err := s.db.QueryRow(ctx,
		"SELECT process_id FROM deployment_phases WHERE id = $1", phaseID,
	).Scan(&processID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("get phase %d: %w", phaseID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get phase %d: %w", phaseID, err)
	}

	var isMember bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM process_members WHERE process_id = $1 AND user_id = $2)",
		processID, userID,
	).Scan(&isMember)
	if err != nil {
		return fmt.Errorf("check process %d membership: %w", processID, err)
	}
	if !isMember {
		return constraintf("user %d is not a member of process %d", userID, processID)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO phase_members (phase_id, user_id, created_at)
		 VALUES ($1, $2, now()) ON CONFLICT DO NOTHING`,
		phaseID, userID,
	)
	if err != nil {
		return fmt.Errorf("add user %d to phase %d: %w", userID, phaseID, err)
	}

	s.bus.Publish(Event{Entity: EntityMembership, ID: phaseID, Op: "add"})
	return nil
}

// RemovePhaseMember removes a user from a phase.
func (s *MembershipService) RemovePhaseMember(ctx context.Context, phaseID, userID int64) error {
	_, err := s.db.Exec(ctx,
		"DELETE FROM phase_members WHERE phase_id = $1 AND user_id = $2",
		phaseID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove user %d from phase %d: %w", userID, phaseID, err)
	}

	s.bus.Publish(Event{Entity: EntityMembership, ID: phaseID, Op: "remove"})
	return nil
}

// ProcessMembers lists the users assigned to a process.
func (s *MembershipService) ProcessMembers(ctx context.Context, processID int64) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.created_at, u.updated_at
		 FROM users u JOIN process_members pm ON pm.user_id = u.id
		 WHERE pm.process_id = $1 ORDER BY u.id`,
		processID)
}

// PhaseMembers lists the users assigned to a phase.
func (s *MembershipService) PhaseMembers(ctx context.Context, phaseID int64) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.created_at, u.updated_at
		 FROM users u JOIN phase_members pm ON pm.user_id = u.id
		 WHERE pm.phase_id = $1 ORDER BY u.id`,
		phaseID)
}

// UnassignedCandidates lists deployment persons who are not yet members of
// the process.
func (s *MembershipService) UnassignedCandidates(ctx context.Context, processID int64) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.created_at, u.updated_at
		 FROM users u
		 WHERE u.role = $2
		   AND NOT EXISTS (SELECT 1 FROM process_members pm WHERE pm.process_id = $1 AND pm.user_id = u.id)
		 ORDER BY u.id`,
		processID, model.RoleDeploymentPerson)
}

// UnassignedPhaseCandidates lists process members who are not yet members of
// the phase.
func (s *MembershipService) UnassignedPhaseCandidates(ctx context.Context, processID, phaseID int64) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.created_at, u.updated_at
		 FROM users u
		 JOIN process_members pm ON pm.user_id = u.id AND pm.process_id = $1
		 WHERE NOT EXISTS (SELECT 1 FROM phase_members fm WHERE fm.phase_id = $2 AND fm.user_id = u.id)
		 ORDER BY u.id`,
		processID, phaseID)
}

func (s *MembershipService) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return users, nil
}

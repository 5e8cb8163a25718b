package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

// UserService is the personnel directory consumed by membership and license
// detail reads.
type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, name, email, role string) (*model.User, error) {
	if name == "" || email == "" {
		return nil, validationf("user name and email are required")
	}

	u := &model.User{Name: name, Email: email, Role: role}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (name, email, role, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		"SELECT id, name, email, role, created_at, updated_at FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (s *UserService) List(ctx context.Context, pageNumber, pageSize int) ([]model.User, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, name, email, role, created_at, updated_at FROM users ORDER BY id LIMIT $1 OFFSET $2",
		pageSize, pageNumber*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListDeploymentPersons returns every user holding the deployment person
// role; the membership candidate sets are derived from this.
func (s *UserService) ListDeploymentPersons(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, name, email, role, created_at, updated_at FROM users WHERE role = $1 ORDER BY id",
		model.RoleDeploymentPerson,
	)
	if err != nil {
		return nil, fmt.Errorf("list deployment persons: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

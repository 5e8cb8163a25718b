package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/delivery/internal/model"
)

type CustomerService struct {
	db DB
}

func NewCustomerService(db DB) *CustomerService {
	return &CustomerService{db: db}
}

func (s *CustomerService) Create(ctx context.Context, name, contactEmail string) (*model.Customer, error) {
	if name == "" {
		return nil, validationf("customer name is required")
	}

	c := &model.Customer{Name: name, ContactEmail: contactEmail}
	err := s.db.QueryRow(ctx,
		`INSERT INTO customers (name, contact_email, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 RETURNING id, created_at, updated_at`,
		c.Name, c.ContactEmail,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	err := s.db.QueryRow(ctx,
		"SELECT id, name, contact_email, created_at, updated_at FROM customers WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return &c, nil
}

func (s *CustomerService) List(ctx context.Context, pageNumber, pageSize int) ([]model.Customer, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM customers").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, name, contact_email, created_at, updated_at FROM customers ORDER BY id LIMIT $1 OFFSET $2",
		pageSize, pageNumber*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, total, nil
}

func (s *CustomerService) Update(ctx context.Context, id int64, name, contactEmail string) error {
	if name == "" {
		return validationf("customer name is required")
	}

	tag, err := s.db.Exec(ctx,
		"UPDATE customers SET name = $1, contact_email = $2, updated_at = now() WHERE id = $3",
		name, contactEmail, id,
	)
	if err != nil {
		return fmt.Errorf("update customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("get customer %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a customer no process references.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	var used bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM deployment_processes WHERE customer_id = $1)", id,
	).Scan(&used)
	if err != nil {
		return fmt.Errorf("check customer %d usage: %w", id, err)
	}
	if used {
		return constraintf("customer %d has deployment processes", id)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM customers WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	return nil
}

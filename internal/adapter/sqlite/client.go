package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// ClientRepository implements domain.ClientRepository using SQLite.
type ClientRepository struct {
	q querier
}

const clientColumns = `id, tenant_id, name, contact_person, contact_phone, contact_email, created_at, updated_at`

func (r *ClientRepository) Create(ctx context.Context, tenant domain.TenantID, c domain.Client) (domain.Client, error) {
	tenantID, err := stamp(tenant, c.TenantID)
	if err != nil {
		return domain.Client{}, err
	}
	c.TenantID = tenantID
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.Name, c.ContactPerson, c.ContactPhone, c.ContactEmail,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Client{}, domain.ErrTenantNotFound
		}
		return domain.Client{}, fmt.Errorf("inserting client: %w", err)
	}
	return c, nil
}

func (r *ClientRepository) Get(ctx context.Context, tenant domain.TenantID, id string) (domain.Client, error) {
	return scanClient(r.q.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	), id)
}

func (r *ClientRepository) List(ctx context.Context, tenant domain.TenantID, filter domain.ClientFilter) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = ?`
	args := []any{string(tenant)}

	if filter.Search != "" {
		query += ` AND (name LIKE ? OR contact_person LIKE ? OR contact_email LIKE ?)`
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}

	query += ` ORDER BY name, id`
	query, args = page(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows, "")
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	return clients, rows.Err()
}

func (r *ClientRepository) Update(ctx context.Context, tenant domain.TenantID, c domain.Client) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE clients SET name = ?, contact_person = ?, contact_phone = ?, contact_email = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		c.Name, c.ContactPerson, c.ContactPhone, c.ContactEmail, formatTime(now()),
		string(tenant), c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}
	return rowsAffected(result, "client", c.ID)
}

func (r *ClientRepository) Delete(ctx context.Context, tenant domain.TenantID, id string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM clients WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.DomainError{Reason: "client is still referenced"}
		}
		return fmt.Errorf("deleting client: %w", err)
	}
	return rowsAffected(result, "client", id)
}

func (r *ClientRepository) CountLocations(ctx context.Context, tenant domain.TenantID, id string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locations WHERE tenant_id = ? AND client_id = ?`, string(tenant), id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting client locations: %w", err)
	}
	return n, nil
}

func scanClient(s scanner, id string) (domain.Client, error) {
	var c domain.Client
	var createdAt, updatedAt string

	err := s.Scan(&c.ID, &c.TenantID, &c.Name, &c.ContactPerson, &c.ContactPhone, &c.ContactEmail, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, &domain.NotFoundError{Resource: "client", ID: id}
		}
		return domain.Client{}, fmt.Errorf("scanning client: %w", err)
	}

	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)

	return c, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	q querier
}

const userColumns = `id, tenant_id, name, email, role, created_at`

func (r *UserRepository) Create(ctx context.Context, tenant domain.TenantID, u domain.User) (domain.User, error) {
	tenantID, err := stamp(tenant, u.TenantID)
	if err != nil {
		return domain.User{}, err
	}
	u.TenantID = tenantID
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO users (id, tenant_id, name, email, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.TenantID, u.Name, u.Email, string(u.Role), formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, &domain.ConflictError{Resource: "user", Field: "email", Value: u.Email}
		}
		if isForeignKeyViolation(err) {
			return domain.User{}, domain.ErrTenantNotFound
		}
		return domain.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Get(ctx context.Context, tenant domain.TenantID, id string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	), id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, tenant domain.TenantID, email string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND email = ?`, string(tenant), email,
	), email)
}

func scanUser(s scanner, key string) (domain.User, error) {
	var u domain.User
	var role, createdAt string

	err := s.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &domain.NotFoundError{Resource: "user", ID: key}
		}
		return domain.User{}, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = domain.Role(role)
	u.CreatedAt = parseTime(createdAt)

	return u, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// LocationRepository implements domain.LocationRepository using SQLite.
type LocationRepository struct {
	q querier
}

const locationColumns = `id, tenant_id, client_id, address, lat, lng, created_at, updated_at`

func (r *LocationRepository) Create(ctx context.Context, tenant domain.TenantID, l domain.Location) (domain.Location, error) {
	tenantID, err := stamp(tenant, l.TenantID)
	if err != nil {
		return domain.Location{}, err
	}
	l.TenantID = tenantID
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO locations (`+locationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.TenantID, l.ClientID, l.Address, l.Lat, l.Lng,
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Location{}, &domain.NotFoundError{Resource: "client", ID: l.ClientID}
		}
		return domain.Location{}, fmt.Errorf("inserting location: %w", err)
	}
	return l, nil
}

func (r *LocationRepository) Get(ctx context.Context, tenant domain.TenantID, id string) (domain.Location, error) {
	return scanLocation(r.q.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	), id)
}

func (r *LocationRepository) List(ctx context.Context, tenant domain.TenantID, filter domain.LocationFilter) ([]domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE tenant_id = ?`
	args := []any{string(tenant)}

	if filter.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, filter.ClientID)
	}
	if filter.Search != "" {
		query += ` AND address LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}

	query += ` ORDER BY address, id`
	query, args = page(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		l, err := scanLocation(rows, "")
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}

	return locations, rows.Err()
}

func (r *LocationRepository) Update(ctx context.Context, tenant domain.TenantID, l domain.Location) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE locations SET client_id = ?, address = ?, lat = ?, lng = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		l.ClientID, l.Address, l.Lat, l.Lng, formatTime(now()),
		string(tenant), l.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Resource: "client", ID: l.ClientID}
		}
		return fmt.Errorf("updating location: %w", err)
	}
	return rowsAffected(result, "location", l.ID)
}

func (r *LocationRepository) Delete(ctx context.Context, tenant domain.TenantID, id string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM locations WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.DomainError{Reason: "location is still referenced by orders"}
		}
		return fmt.Errorf("deleting location: %w", err)
	}
	return rowsAffected(result, "location", id)
}

func (r *LocationRepository) CountOrders(ctx context.Context, tenant domain.TenantID, id string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE tenant_id = ? AND location_id = ?`, string(tenant), id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting location orders: %w", err)
	}
	return n, nil
}

func scanLocation(s scanner, id string) (domain.Location, error) {
	var l domain.Location
	var lat, lng sql.NullFloat64
	var createdAt, updatedAt string

	err := s.Scan(&l.ID, &l.TenantID, &l.ClientID, &l.Address, &lat, &lng, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Location{}, &domain.NotFoundError{Resource: "location", ID: id}
		}
		return domain.Location{}, fmt.Errorf("scanning location: %w", err)
	}

	l.Lat = nullFloat(lat)
	l.Lng = nullFloat(lng)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)

	return l, nil
}

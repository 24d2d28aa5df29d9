package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// TruckRepository implements domain.TruckRepository using SQLite.
type TruckRepository struct {
	q querier
}

const truckColumns = `id, tenant_id, plate_no, tank_capacity_l, active, created_at, updated_at`

func (r *TruckRepository) Create(ctx context.Context, tenant domain.TenantID, t domain.Truck) (domain.Truck, error) {
	tenantID, err := stamp(tenant, t.TenantID)
	if err != nil {
		return domain.Truck{}, err
	}
	t.TenantID = tenantID
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO delivery_trucks (`+truckColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TenantID, t.PlateNo, t.TankCapacityL, t.Active,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Truck{}, &domain.ConflictError{Resource: "truck", Field: "plate_no", Value: t.PlateNo}
		}
		if isForeignKeyViolation(err) {
			return domain.Truck{}, domain.ErrTenantNotFound
		}
		return domain.Truck{}, fmt.Errorf("inserting truck: %w", err)
	}
	return t, nil
}

func (r *TruckRepository) Get(ctx context.Context, tenant domain.TenantID, id string) (domain.Truck, error) {
	return scanTruck(r.q.QueryRowContext(ctx,
		`SELECT `+truckColumns+` FROM delivery_trucks WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	), id)
}

func (r *TruckRepository) GetByPlate(ctx context.Context, tenant domain.TenantID, plateNo string) (domain.Truck, error) {
	return scanTruck(r.q.QueryRowContext(ctx,
		`SELECT `+truckColumns+` FROM delivery_trucks WHERE tenant_id = ? AND plate_no = ?`, string(tenant), plateNo,
	), plateNo)
}

func (r *TruckRepository) List(ctx context.Context, tenant domain.TenantID, filter domain.TruckFilter) ([]domain.Truck, error) {
	query := `SELECT ` + truckColumns + ` FROM delivery_trucks WHERE tenant_id = ?`
	args := []any{string(tenant)}

	if filter.ActiveOnly {
		query += ` AND active = 1`
	}

	query += ` ORDER BY plate_no, id`
	query, args = page(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trucks: %w", err)
	}
	defer rows.Close()

	var trucks []domain.Truck
	for rows.Next() {
		t, err := scanTruck(rows, "")
		if err != nil {
			return nil, err
		}
		trucks = append(trucks, t)
	}

	return trucks, rows.Err()
}

func (r *TruckRepository) Update(ctx context.Context, tenant domain.TenantID, t domain.Truck) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE delivery_trucks SET plate_no = ?, tank_capacity_l = ?, active = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		t.PlateNo, t.TankCapacityL, t.Active, formatTime(now()),
		string(tenant), t.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Resource: "truck", Field: "plate_no", Value: t.PlateNo}
		}
		return fmt.Errorf("updating truck: %w", err)
	}
	return rowsAffected(result, "truck", t.ID)
}

func (r *TruckRepository) Delete(ctx context.Context, tenant domain.TenantID, id string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM delivery_trucks WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.DomainError{Reason: "truck is still referenced by orders"}
		}
		return fmt.Errorf("deleting truck: %w", err)
	}
	return rowsAffected(result, "truck", id)
}

func (r *TruckRepository) CountOrders(ctx context.Context, tenant domain.TenantID, id string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE tenant_id = ? AND truck_id = ?`, string(tenant), id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting truck orders: %w", err)
	}
	return n, nil
}

func scanTruck(s scanner, key string) (domain.Truck, error) {
	var t domain.Truck
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.TenantID, &t.PlateNo, &t.TankCapacityL, &t.Active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Truck{}, &domain.NotFoundError{Resource: "truck", ID: key}
		}
		return domain.Truck{}, fmt.Errorf("scanning truck: %w", err)
	}

	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return t, nil
}

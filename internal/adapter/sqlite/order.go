package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// OrderRepository implements domain.OrderRepository using SQLite.
type OrderRepository struct {
	q querier
}

const orderColumns = `id, tenant_id, client_id, location_id, truck_id, driver_id, created_by, fuel_liters, status,
	window_start, window_end, delivered_liters, delivered_at, cancellation_reason, created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, tenant domain.TenantID, o domain.Order) (domain.Order, error) {
	tenantID, err := stamp(tenant, o.TenantID)
	if err != nil {
		return domain.Order{}, err
	}
	o.TenantID = tenantID
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = domain.StatusDraft
	}
	o.CreatedAt = now()
	o.UpdatedAt = o.CreatedAt

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.TenantID, o.ClientID, o.LocationID, o.TruckID, o.DriverID, o.CreatedBy, o.FuelLiters, string(o.Status),
		formatNullTime(o.WindowStart), formatNullTime(o.WindowEnd), o.DeliveredLiters, formatNullTime(o.DeliveredAt),
		o.CancellationReason, formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Order{}, &domain.DomainError{Reason: "order references an entity outside the tenant"}
		}
		return domain.Order{}, fmt.Errorf("inserting order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) Get(ctx context.Context, tenant domain.TenantID, id string) (domain.Order, error) {
	return scanOrder(r.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	), id)
}

func (r *OrderRepository) List(ctx context.Context, tenant domain.TenantID, filter domain.OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = ?`
	args := []any{string(tenant)}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	for _, eq := range []struct {
		column, value string
	}{
		{"client_id", filter.ClientID},
		{"location_id", filter.LocationID},
		{"truck_id", filter.TruckID},
		{"driver_id", filter.DriverID},
	} {
		if eq.value != "" {
			query += ` AND ` + eq.column + ` = ?`
			args = append(args, eq.value)
		}
	}
	if filter.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		query += ` AND created_at <= ?`
		args = append(args, formatTime(*filter.To))
	}

	query += ` ORDER BY created_at DESC, id DESC`
	query, args = page(query, args, filter.Limit, filter.Offset)

	return r.queryOrders(ctx, query, args...)
}

func (r *OrderRepository) Update(ctx context.Context, tenant domain.TenantID, o domain.Order) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE orders SET client_id = ?, location_id = ?, truck_id = ?, driver_id = ?, fuel_liters = ?, status = ?,
		 window_start = ?, window_end = ?, delivered_liters = ?, delivered_at = ?, cancellation_reason = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		o.ClientID, o.LocationID, o.TruckID, o.DriverID, o.FuelLiters, string(o.Status),
		formatNullTime(o.WindowStart), formatNullTime(o.WindowEnd), o.DeliveredLiters, formatNullTime(o.DeliveredAt),
		o.CancellationReason, formatTime(now()),
		string(tenant), o.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.DomainError{Reason: "order references an entity outside the tenant"}
		}
		return fmt.Errorf("updating order: %w", err)
	}
	return rowsAffected(result, "order", o.ID)
}

func (r *OrderRepository) Delete(ctx context.Context, tenant domain.TenantID, id string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM orders WHERE tenant_id = ? AND id = ?`, string(tenant), id,
	)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	return rowsAffected(result, "order", id)
}

// FindActiveOnTruck relies on the stored timestamp format sorting lexicographically.
func (r *OrderRepository) FindActiveOnTruck(ctx context.Context, tenant domain.TenantID, truckID string, w domain.Window, excludeID string) ([]domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE tenant_id = ? AND truck_id = ? AND status IN (?, ?)
		   AND window_start < ? AND window_end > ? AND id != ?
		 ORDER BY window_start, id`,
		string(tenant), truckID, string(domain.StatusScheduled), string(domain.StatusEnRoute),
		formatTime(w.End), formatTime(w.Start), excludeID,
	)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows, "")
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func scanOrder(s scanner, id string) (domain.Order, error) {
	var o domain.Order
	var status, createdAt, updatedAt string
	var truckID, driverID, reason, windowStart, windowEnd, deliveredAt sql.NullString
	var delivered sql.NullInt64

	err := s.Scan(
		&o.ID, &o.TenantID, &o.ClientID, &o.LocationID, &truckID, &driverID, &o.CreatedBy, &o.FuelLiters, &status,
		&windowStart, &windowEnd, &delivered, &deliveredAt, &reason, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, &domain.NotFoundError{Resource: "order", ID: id}
		}
		return domain.Order{}, fmt.Errorf("scanning order: %w", err)
	}

	o.Status = domain.OrderStatus(status)
	o.TruckID = nullString(truckID)
	o.DriverID = nullString(driverID)
	o.CancellationReason = nullString(reason)
	o.WindowStart = parseNullTime(windowStart)
	o.WindowEnd = parseNullTime(windowEnd)
	o.DeliveredLiters = nullInt(delivered)
	o.DeliveredAt = parseNullTime(deliveredAt)
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)

	return o, nil
}

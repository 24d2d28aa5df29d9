package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// OrderService drives orders through their lifecycle. Every mutation runs its
// lookups, guards and write in one transaction and is audited after commit.
type OrderService struct {
	store        domain.TxStore
	validator    domain.TransitionValidator
	availability AvailabilityChecker
	auditor
}

// NewOrderService creates a service with the given adapters.
func NewOrderService(store domain.TxStore, validator domain.TransitionValidator, recorder domain.AuditRecorder, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:     store,
		validator: validator,
		auditor:   newAuditor(recorder, logger),
	}
}

// CreateOrderInput holds the fields of a new order.
type CreateOrderInput struct {
	ClientID    string     `json:"client_id" validate:"required"`
	LocationID  string     `json:"location_id" validate:"required"`
	FuelLiters  int        `json:"fuel_liters" validate:"gte=100"`
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
}

// Create stores a new DRAFT order created by actor.
func (s *OrderService) Create(ctx context.Context, tenant domain.TenantID, actor domain.Actor, in CreateOrderInput) (domain.Order, error) {
	if err := authorize(tenant, actor, domain.ActionCreate, domain.ResourceOrder, nil); err != nil {
		return domain.Order{}, err
	}
	if err := validateStruct(in); err != nil {
		return domain.Order{}, err
	}
	start, end := truncate(in.WindowStart), truncate(in.WindowEnd)
	if err := domain.ValidateWindow(start, end); err != nil {
		return domain.Order{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Order{}, fmt.Errorf("generating order id: %w", err)
	}

	var order domain.Order
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := checkClientLocation(ctx, tx, tenant, in.ClientID, in.LocationID); err != nil {
			return err
		}

		order, err = tx.Orders().Create(ctx, tenant, domain.Order{
			ID:          id,
			ClientID:    in.ClientID,
			LocationID:  in.LocationID,
			CreatedBy:   actor.UserID,
			FuelLiters:  in.FuelLiters,
			Status:      domain.StatusDraft,
			WindowStart: start,
			WindowEnd:   end,
		})
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectOrder, order.ID, domain.ActionCreated)
	entry.NewValues = order.Snapshot()
	entry.Description = order.Label() + " created"
	s.record(ctx, entry)

	return order, nil
}

// Get returns an order. Drivers only see orders assigned to them.
func (s *OrderService) Get(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) (domain.Order, error) {
	order, err := s.store.Orders().Get(ctx, tenant, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := authorize(tenant, actor, domain.ActionView, domain.ResourceOrder, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// List returns orders matching filter. Drivers only see their own orders.
func (s *OrderService) List(ctx context.Context, tenant domain.TenantID, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := authorize(tenant, actor, domain.ActionList, domain.ResourceOrder, nil); err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleDriver {
		filter.DriverID = actor.UserID
	}
	return s.store.Orders().List(ctx, tenant, filter)
}

// NextEvents lists the lifecycle events the order's status still allows.
// Role and data guards are not applied.
func (s *OrderService) NextEvents(order domain.Order) []domain.OrderEvent {
	return s.validator.Available(order.Status)
}

// Update changes a DRAFT order. Client and location are re-validated together
// whenever either one changes.
func (s *OrderService) Update(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, patch domain.OrderPatch) (domain.Order, error) {
	var before, after domain.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		before, err = tx.Orders().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionUpdate, domain.ResourceOrder, &before); err != nil {
			return err
		}
		if before.Status != domain.StatusDraft {
			return &domain.DomainError{Reason: fmt.Sprintf("only DRAFT orders can be updated, order is %s", before.Status)}
		}

		after = before
		if patch.Empty() {
			return nil
		}
		if patch.FuelLiters != nil {
			if *patch.FuelLiters < domain.MinFuelLiters {
				return &domain.ValidationError{Field: "fuel_liters", Reason: fmt.Sprintf("must be at least %d", domain.MinFuelLiters)}
			}
			after.FuelLiters = *patch.FuelLiters
		}
		if patch.WindowStart != nil {
			after.WindowStart = truncate(patch.WindowStart)
		}
		if patch.WindowEnd != nil {
			after.WindowEnd = truncate(patch.WindowEnd)
		}
		if err := domain.ValidateWindow(after.WindowStart, after.WindowEnd); err != nil {
			return err
		}
		if patch.ClientID != nil || patch.LocationID != nil {
			if patch.ClientID != nil {
				after.ClientID = *patch.ClientID
			}
			if patch.LocationID != nil {
				after.LocationID = *patch.LocationID
			}
			if err := checkClientLocation(ctx, tx, tenant, after.ClientID, after.LocationID); err != nil {
				return err
			}
		}

		oldValues, _ := domain.ChangedValues(before.Snapshot(), after.Snapshot())
		if len(oldValues) == 0 {
			return nil
		}
		return tx.Orders().Update(ctx, tenant, after)
	})
	if err != nil {
		return domain.Order{}, err
	}

	oldValues, newValues := domain.ChangedValues(before.Snapshot(), after.Snapshot())
	if len(oldValues) == 0 {
		return before, nil
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectOrder, after.ID, domain.ActionUpdated)
	entry.OldValues = oldValues
	entry.NewValues = newValues
	entry.Description = after.Label() + " updated"
	s.record(ctx, entry)

	return after, nil
}

// Delete removes a DRAFT order. The audit entry keeps the removed snapshot.
func (s *OrderService) Delete(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) error {
	var order domain.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		order, err = tx.Orders().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionDelete, domain.ResourceOrder, &order); err != nil {
			return err
		}
		if order.Status != domain.StatusDraft {
			return &domain.DomainError{Reason: fmt.Sprintf("only DRAFT orders can be deleted, order is %s", order.Status)}
		}
		return tx.Orders().Delete(ctx, tenant, id)
	})
	if err != nil {
		return err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectOrder, order.ID, domain.ActionDeleted)
	entry.OldValues = order.Snapshot()
	entry.Description = order.Label() + " deleted"
	s.record(ctx, entry)

	return nil
}

// Submit moves a DRAFT order to SUBMITTED once quantity and window are set.
func (s *OrderService) Submit(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) (domain.Order, error) {
	return s.transition(ctx, tenant, actor, id, domain.EventSubmit, domain.ActionSubmit,
		func(_ context.Context, _ domain.Store, o *domain.Order) (map[string]any, error) {
			if o.FuelLiters <= 0 || o.WindowStart == nil || o.WindowEnd == nil {
				return nil, &domain.DomainError{Reason: "order must have fuel_liters, window_start and window_end to be submitted"}
			}
			return nil, nil
		})
}

// Schedule assigns an active truck with enough capacity and no overlapping
// SCHEDULED or EN_ROUTE order, and moves the order to SCHEDULED.
func (s *OrderService) Schedule(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id, truckID string) (domain.Order, error) {
	if truckID == "" {
		return domain.Order{}, &domain.ValidationError{Field: "truck_id", Reason: "is required"}
	}
	return s.transition(ctx, tenant, actor, id, domain.EventSchedule, domain.ActionSchedule,
		func(ctx context.Context, tx domain.Store, o *domain.Order) (map[string]any, error) {
			truck, err := tx.Trucks().Get(ctx, tenant, truckID)
			if err != nil {
				return nil, err
			}
			if !truck.Active {
				return nil, &domain.DomainError{Reason: fmt.Sprintf("truck %s is inactive", truck.PlateNo)}
			}
			if o.FuelLiters > truck.TankCapacityL {
				return nil, &domain.DomainError{Reason: fmt.Sprintf("order requires %dL but truck %s holds only %dL", o.FuelLiters, truck.PlateNo, truck.TankCapacityL)}
			}
			w, ok := o.Window()
			if !ok {
				return nil, &domain.DomainError{Reason: "order has no delivery window"}
			}

			availability, err := s.availability.Check(ctx, tx, tenant, truck.ID, w, o.ID)
			if err != nil {
				return nil, err
			}
			if !availability.Available {
				return nil, &domain.DomainError{Reason: fmt.Sprintf("truck %s has conflicting orders in this window: %s", truck.PlateNo, strings.Join(availability.Conflicts, ", "))}
			}

			o.TruckID = &truck.ID
			return map[string]any{"truck_id": truck.ID, "truck_plate": truck.PlateNo}, nil
		})
}

// Dispatch assigns a driver and moves a SCHEDULED order to EN_ROUTE.
func (s *OrderService) Dispatch(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id, driverID string) (domain.Order, error) {
	if driverID == "" {
		return domain.Order{}, &domain.ValidationError{Field: "driver_id", Reason: "is required"}
	}
	return s.transition(ctx, tenant, actor, id, domain.EventDispatch, domain.ActionDispatch,
		func(ctx context.Context, tx domain.Store, o *domain.Order) (map[string]any, error) {
			if o.TruckID == nil {
				return nil, &domain.DomainError{Reason: "order must have a truck assigned to be dispatched"}
			}
			driver, err := tx.Users().Get(ctx, tenant, driverID)
			if err != nil {
				return nil, err
			}
			if driver.Role != domain.RoleDriver {
				return nil, &domain.DomainError{Reason: fmt.Sprintf("user %s is not a driver", driver.ID)}
			}

			o.DriverID = &driver.ID
			return map[string]any{"driver_id": driver.ID}, nil
		})
}

// Deliver records the delivered quantity, at most 10% above the ordered
// quantity, and moves an EN_ROUTE order to DELIVERED.
func (s *OrderService) Deliver(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, deliveredLiters int) (domain.Order, error) {
	return s.transition(ctx, tenant, actor, id, domain.EventDeliver, domain.ActionDeliver,
		func(_ context.Context, _ domain.Store, o *domain.Order) (map[string]any, error) {
			if deliveredLiters <= 0 {
				return nil, &domain.DomainError{Reason: "delivered_liters must be greater than 0"}
			}
			if !o.DeliveryWithinTolerance(deliveredLiters) {
				return nil, &domain.DomainError{Reason: fmt.Sprintf("delivered %dL exceeds the ordered %dL by more than 10%%", deliveredLiters, o.FuelLiters)}
			}

			deliveredAt := time.Now().UTC().Truncate(time.Second)
			o.DeliveredLiters = &deliveredLiters
			o.DeliveredAt = &deliveredAt
			return map[string]any{
				"delivered_liters": deliveredLiters,
				"delivered_at":     deliveredAt.Format(time.RFC3339),
			}, nil
		})
}

// Cancel moves any non-terminal order to CANCELLED, keeping reason when given.
func (s *OrderService) Cancel(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, reason *string) (domain.Order, error) {
	if reason != nil && len([]rune(*reason)) > domain.MaxCancellationReason {
		return domain.Order{}, &domain.ValidationError{Field: "reason", Reason: fmt.Sprintf("must be at most %d characters", domain.MaxCancellationReason)}
	}
	return s.transition(ctx, tenant, actor, id, domain.EventCancel, domain.ActionCancel,
		func(_ context.Context, _ domain.Store, o *domain.Order) (map[string]any, error) {
			if reason == nil || *reason == "" {
				return nil, nil
			}
			o.CancellationReason = reason
			return map[string]any{"cancellation_reason": *reason}, nil
		})
}

// guardFunc checks transition-specific preconditions, applies the
// transition's field changes to o and returns the extra audit values.
type guardFunc func(ctx context.Context, tx domain.Store, o *domain.Order) (map[string]any, error)

// transition loads the order, authorizes the actor, validates the status
// change, runs guard and persists the result in one transaction. The audit
// entry is recorded only after the commit succeeded.
func (s *OrderService) transition(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, event domain.OrderEvent, action domain.Action, guard guardFunc) (domain.Order, error) {
	var order domain.Order
	var from domain.OrderStatus
	var extra map[string]any

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		order, err = tx.Orders().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, action, domain.ResourceOrder, &order); err != nil {
			return err
		}

		from = order.Status
		to, err := s.validator.Apply(ctx, from, event)
		if err != nil {
			var transitionErr *domain.TransitionError
			if errors.As(err, &transitionErr) {
				return &domain.DomainError{Reason: fmt.Sprintf("cannot %s an order in %s status", event, from), Err: err}
			}
			return fmt.Errorf("validating transition: %w", err)
		}

		extra, err = guard(ctx, tx, &order)
		if err != nil {
			return err
		}

		order.Status = to
		return tx.Orders().Update(ctx, tenant, order)
	})
	if err != nil {
		return domain.Order{}, err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectOrder, order.ID, domain.TransitionAction(order.Status))
	entry.OldValues = map[string]any{"status": string(from)}
	entry.NewValues = map[string]any{"status": string(order.Status)}
	for k, v := range extra {
		entry.NewValues[k] = v
	}
	entry.Description = fmt.Sprintf("%s transitioned from %s to %s", order.Label(), from, order.Status)
	s.record(ctx, entry)

	return order, nil
}

// checkClientLocation verifies that both entities exist in tenant and that the
// location belongs to the client.
func checkClientLocation(ctx context.Context, tx domain.Store, tenant domain.TenantID, clientID, locationID string) error {
	if _, err := tx.Clients().Get(ctx, tenant, clientID); err != nil {
		return err
	}
	location, err := tx.Locations().Get(ctx, tenant, locationID)
	if err != nil {
		return err
	}
	if location.ClientID != clientID {
		return &domain.ValidationError{Field: "location_id", Reason: "location does not belong to the specified client"}
	}
	return nil
}

func truncate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Second)
	return &v
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// TruckService manages a tenant's delivery fleet.
type TruckService struct {
	store        domain.TxStore
	availability AvailabilityChecker
	auditor
}

// NewTruckService creates a service with the given adapters.
func NewTruckService(store domain.TxStore, recorder domain.AuditRecorder, logger *slog.Logger) *TruckService {
	return &TruckService{store: store, auditor: newAuditor(recorder, logger)}
}

// CreateTruckInput holds the fields of a new truck. Active defaults to true.
type CreateTruckInput struct {
	PlateNo       string `json:"plate_no" validate:"required,max=20"`
	TankCapacityL int    `json:"tank_capacity_l" validate:"gt=0"`
	Active        *bool  `json:"active"`
}

// Create adds a truck. Plate numbers are unique within a tenant.
func (s *TruckService) Create(ctx context.Context, tenant domain.TenantID, actor domain.Actor, in CreateTruckInput) (domain.Truck, error) {
	if err := authorize(tenant, actor, domain.ActionCreate, domain.ResourceTruck, nil); err != nil {
		return domain.Truck{}, err
	}
	in.PlateNo = strings.TrimSpace(in.PlateNo)
	if err := validateStruct(in); err != nil {
		return domain.Truck{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Truck{}, fmt.Errorf("generating truck id: %w", err)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	truck, err := s.store.Trucks().Create(ctx, tenant, domain.Truck{
		ID:            id,
		PlateNo:       in.PlateNo,
		TankCapacityL: in.TankCapacityL,
		Active:        active,
	})
	if err != nil {
		return domain.Truck{}, err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectTruck, truck.ID, domain.ActionCreated)
	entry.NewValues = truck.Snapshot()
	entry.Description = fmt.Sprintf("Truck %s created", truck.PlateNo)
	s.record(ctx, entry)

	return truck, nil
}

func (s *TruckService) Get(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) (domain.Truck, error) {
	truck, err := s.store.Trucks().Get(ctx, tenant, id)
	if err != nil {
		return domain.Truck{}, err
	}
	if err := authorize(tenant, actor, domain.ActionView, domain.ResourceTruck, nil); err != nil {
		return domain.Truck{}, err
	}
	return truck, nil
}

func (s *TruckService) List(ctx context.Context, tenant domain.TenantID, actor domain.Actor, filter domain.TruckFilter) ([]domain.Truck, error) {
	if err := authorize(tenant, actor, domain.ActionList, domain.ResourceTruck, nil); err != nil {
		return nil, err
	}
	return s.store.Trucks().List(ctx, tenant, filter)
}

func (s *TruckService) Update(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, patch domain.TruckPatch) (domain.Truck, error) {
	return s.update(ctx, tenant, actor, id, domain.ActionUpdated, func(t *domain.Truck) error {
		if patch.PlateNo != nil {
			plate := strings.TrimSpace(*patch.PlateNo)
			if plate == "" {
				return &domain.ValidationError{Field: "plate_no", Reason: "is required"}
			}
			t.PlateNo = plate
		}
		if patch.TankCapacityL != nil {
			if *patch.TankCapacityL <= 0 {
				return &domain.ValidationError{Field: "tank_capacity_l", Reason: "must be greater than 0"}
			}
			t.TankCapacityL = *patch.TankCapacityL
		}
		if patch.Active != nil {
			t.Active = *patch.Active
		}
		return nil
	})
}

// ToggleActive flips the truck's active flag. Inactive trucks cannot be scheduled.
func (s *TruckService) ToggleActive(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) (domain.Truck, error) {
	return s.update(ctx, tenant, actor, id, domain.ActionToggled, func(t *domain.Truck) error {
		t.Active = !t.Active
		return nil
	})
}

func (s *TruckService) update(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id, auditAction string, apply func(*domain.Truck) error) (domain.Truck, error) {
	var before, after domain.Truck
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		before, err = tx.Trucks().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionUpdate, domain.ResourceTruck, nil); err != nil {
			return err
		}

		after = before
		if err := apply(&after); err != nil {
			return err
		}
		return tx.Trucks().Update(ctx, tenant, after)
	})
	if err != nil {
		return domain.Truck{}, err
	}

	oldValues, newValues := domain.ChangedValues(before.Snapshot(), after.Snapshot())
	if len(newValues) > 0 {
		entry := domain.NewAuditEntry(tenant, actor, domain.SubjectTruck, after.ID, auditAction)
		entry.OldValues = oldValues
		entry.NewValues = newValues
		entry.Description = fmt.Sprintf("Truck %s %s", after.PlateNo, auditAction)
		s.record(ctx, entry)
	}

	return after, nil
}

// Delete removes a truck that no order references. Referenced trucks should
// be deactivated instead.
func (s *TruckService) Delete(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) error {
	var truck domain.Truck
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		truck, err = tx.Trucks().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionDelete, domain.ResourceTruck, nil); err != nil {
			return err
		}
		n, err := tx.Trucks().CountOrders(ctx, tenant, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.DomainError{Reason: fmt.Sprintf("truck %s is referenced by %d order(s); deactivate it instead", truck.PlateNo, n)}
		}
		return tx.Trucks().Delete(ctx, tenant, id)
	})
	if err != nil {
		return err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectTruck, truck.ID, domain.ActionDeleted)
	entry.OldValues = truck.Snapshot()
	entry.Description = fmt.Sprintf("Truck %s deleted", truck.PlateNo)
	s.record(ctx, entry)

	return nil
}

// Availability reports whether the truck is free during [start, end).
func (s *TruckService) Availability(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, start, end time.Time, excludeOrderID string) (domain.Availability, error) {
	truck, err := s.store.Trucks().Get(ctx, tenant, id)
	if err != nil {
		return domain.Availability{}, err
	}
	if err := authorize(tenant, actor, domain.ActionView, domain.ResourceTruck, nil); err != nil {
		return domain.Availability{}, err
	}

	w := domain.Window{Start: start.UTC().Truncate(time.Second), End: end.UTC().Truncate(time.Second)}
	return s.availability.Check(ctx, s.store, tenant, truck.ID, w, excludeOrderID)
}

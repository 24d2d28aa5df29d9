package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// LocationService manages delivery locations of a tenant's clients.
type LocationService struct {
	store domain.TxStore
	auditor
}

// NewLocationService creates a service with the given adapters.
func NewLocationService(store domain.TxStore, recorder domain.AuditRecorder, logger *slog.Logger) *LocationService {
	return &LocationService{store: store, auditor: newAuditor(recorder, logger)}
}

// CreateLocationInput holds the fields of a new location.
type CreateLocationInput struct {
	ClientID string   `json:"client_id" validate:"required"`
	Address  string   `json:"address" validate:"required,max=500"`
	Lat      *float64 `json:"lat" validate:"omitnil,latitude"`
	Lng      *float64 `json:"lng" validate:"omitnil,longitude"`
}

func (s *LocationService) Create(ctx context.Context, tenant domain.TenantID, actor domain.Actor, in CreateLocationInput) (domain.Location, error) {
	if err := authorize(tenant, actor, domain.ActionCreate, domain.ResourceLocation, nil); err != nil {
		return domain.Location{}, err
	}
	if err := validateStruct(in); err != nil {
		return domain.Location{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Location{}, fmt.Errorf("generating location id: %w", err)
	}

	var location domain.Location
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.Clients().Get(ctx, tenant, in.ClientID); err != nil {
			return err
		}
		location, err = tx.Locations().Create(ctx, tenant, domain.Location{
			ID:       id,
			ClientID: in.ClientID,
			Address:  in.Address,
			Lat:      in.Lat,
			Lng:      in.Lng,
		})
		return err
	})
	if err != nil {
		return domain.Location{}, err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectLocation, location.ID, domain.ActionCreated)
	entry.NewValues = location.Snapshot()
	entry.Description = fmt.Sprintf("Location %s created", location.Address)
	s.record(ctx, entry)

	return location, nil
}

func (s *LocationService) Get(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) (domain.Location, error) {
	location, err := s.store.Locations().Get(ctx, tenant, id)
	if err != nil {
		return domain.Location{}, err
	}
	if err := authorize(tenant, actor, domain.ActionView, domain.ResourceLocation, nil); err != nil {
		return domain.Location{}, err
	}
	return location, nil
}

func (s *LocationService) List(ctx context.Context, tenant domain.TenantID, actor domain.Actor, filter domain.LocationFilter) ([]domain.Location, error) {
	if err := authorize(tenant, actor, domain.ActionList, domain.ResourceLocation, nil); err != nil {
		return nil, err
	}
	return s.store.Locations().List(ctx, tenant, filter)
}

// Update changes a location. Moving it to another client requires that client
// to exist in the same tenant and no order to reference the location, since an
// order's location always belongs to the order's client.
func (s *LocationService) Update(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, patch domain.LocationPatch) (domain.Location, error) {
	var before, after domain.Location
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		before, err = tx.Locations().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionUpdate, domain.ResourceLocation, nil); err != nil {
			return err
		}

		after = before
		if patch.Address != nil {
			if *patch.Address == "" {
				return &domain.ValidationError{Field: "address", Reason: "is required"}
			}
			after.Address = *patch.Address
		}
		if patch.Lat != nil {
			after.Lat = patch.Lat
		}
		if patch.Lng != nil {
			after.Lng = patch.Lng
		}
		if err := domain.ValidateCoordinates(after.Lat, after.Lng); err != nil {
			return err
		}
		if patch.ClientID != nil && *patch.ClientID != before.ClientID {
			if _, err := tx.Clients().Get(ctx, tenant, *patch.ClientID); err != nil {
				return err
			}
			n, err := tx.Locations().CountOrders(ctx, tenant, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return &domain.DomainError{Reason: fmt.Sprintf("location is referenced by %d order(s) and cannot move to another client", n)}
			}
			after.ClientID = *patch.ClientID
		}

		return tx.Locations().Update(ctx, tenant, after)
	})
	if err != nil {
		return domain.Location{}, err
	}

	oldValues, newValues := domain.ChangedValues(before.Snapshot(), after.Snapshot())
	if len(newValues) > 0 {
		entry := domain.NewAuditEntry(tenant, actor, domain.SubjectLocation, after.ID, domain.ActionUpdated)
		entry.OldValues = oldValues
		entry.NewValues = newValues
		entry.Description = fmt.Sprintf("Location %s updated", after.Address)
		s.record(ctx, entry)
	}

	return after, nil
}

// Delete removes a location that no order references.
func (s *LocationService) Delete(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) error {
	var location domain.Location
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		location, err = tx.Locations().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionDelete, domain.ResourceLocation, nil); err != nil {
			return err
		}
		n, err := tx.Locations().CountOrders(ctx, tenant, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.DomainError{Reason: fmt.Sprintf("location is referenced by %d order(s)", n)}
		}
		return tx.Locations().Delete(ctx, tenant, id)
	})
	if err != nil {
		return err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectLocation, location.ID, domain.ActionDeleted)
	entry.OldValues = location.Snapshot()
	entry.Description = fmt.Sprintf("Location %s deleted", location.Address)
	s.record(ctx, entry)

	return nil
}

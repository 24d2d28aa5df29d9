package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// AvailabilityChecker finds scheduling conflicts on a truck.
type AvailabilityChecker struct{}

// Check reports whether truckID is free during w. Orders that are SCHEDULED or
// EN_ROUTE on the truck and overlap w are conflicts; excludeOrderID is ignored
// so an order never conflicts with itself. Windows that only touch are free.
func (AvailabilityChecker) Check(ctx context.Context, store domain.Store, tenant domain.TenantID, truckID string, w domain.Window, excludeOrderID string) (domain.Availability, error) {
	if !w.Valid() {
		return domain.Availability{}, &domain.ValidationError{Field: "end", Reason: "must be after start"}
	}

	candidates, err := store.Orders().FindActiveOnTruck(ctx, tenant, truckID, w, excludeOrderID)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("finding orders on truck: %w", err)
	}

	result := domain.Availability{Available: true, Conflicts: []string{}}
	for _, o := range candidates {
		existing, ok := o.Window()
		if !ok || o.ID == excludeOrderID || !existing.Overlaps(w) {
			continue
		}
		result.Available = false
		result.Conflicts = append(result.Conflicts, o.ID)
	}

	return result, nil
}

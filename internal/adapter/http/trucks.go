package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

// TruckResponse is the API representation of a delivery truck.
type TruckResponse struct {
	ID            string `json:"id" doc:"Unique identifier"`
	PlateNo       string `json:"plate_no" doc:"Plate number, unique per tenant"`
	TankCapacityL int    `json:"tank_capacity_l" doc:"Tank capacity in liters"`
	Active        bool   `json:"active" doc:"Whether the truck can be scheduled"`
	CreatedAt     string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt     string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTruckResponse(t domain.Truck) TruckResponse {
	return TruckResponse{
		ID:            t.ID,
		PlateNo:       t.PlateNo,
		TankCapacityL: t.TankCapacityL,
		Active:        t.Active,
		CreatedAt:     formatTime(t.CreatedAt),
		UpdatedAt:     formatTime(t.UpdatedAt),
	}
}

type TruckOutput struct {
	Body TruckResponse
}

type TruckPath struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	ID     string `path:"id" doc:"Truck ID"`
}

type CreateTruckInput struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	Body   struct {
		PlateNo       string `json:"plate_no" doc:"Plate number"`
		TankCapacityL int    `json:"tank_capacity_l" doc:"Tank capacity in liters"`
		Active        *bool  `json:"active,omitempty" doc:"Defaults to true"`
	}
}

type ListTrucksInput struct {
	Tenant     string `path:"tenant" doc:"Tenant slug"`
	ActiveOnly bool   `query:"active" required:"false" doc:"Only active trucks"`
	Limit      int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTrucksOutput struct {
	Body []TruckResponse
}

type UpdateTruckInput struct {
	TruckPath
	Body struct {
		PlateNo       *string `json:"plate_no,omitempty" doc:"Plate number"`
		TankCapacityL *int    `json:"tank_capacity_l,omitempty" doc:"Tank capacity in liters"`
		Active        *bool   `json:"active,omitempty" doc:"Whether the truck can be scheduled"`
	}
}

// --- Availability ---

type AvailabilityInput struct {
	TruckPath
	Start          time.Time `query:"start" required:"true" doc:"Window start (ISO 8601)"`
	End            time.Time `query:"end" required:"true" doc:"Window end (ISO 8601)"`
	ExcludeOrderID string    `query:"exclude_order_id" required:"false" doc:"Order to ignore, e.g. the one being rescheduled"`
}

type AvailabilityResponse struct {
	Available bool     `json:"available" doc:"True when no active order overlaps the window"`
	Conflicts []string `json:"conflicts" doc:"IDs of overlapping SCHEDULED or EN_ROUTE orders"`
}

type AvailabilityOutput struct {
	Body AvailabilityResponse
}

func (h *handler) registerTrucks(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-truck",
		Method:        http.MethodPost,
		Path:          "/api/v1/{tenant}/trucks",
		Summary:       "Add a truck to the fleet",
		Tags:          []string{"Trucks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTruckInput) (*TruckOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		truck, err := h.Trucks.Create(ctx, tenant, actor, app.CreateTruckInput{
			PlateNo:       input.Body.PlateNo,
			TankCapacityL: input.Body.TankCapacityL,
			Active:        input.Body.Active,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TruckOutput{Body: toTruckResponse(truck)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-trucks",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/trucks",
		Summary:     "List trucks",
		Tags:        []string{"Trucks"},
	}, func(ctx context.Context, input *ListTrucksInput) (*ListTrucksOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		trucks, err := h.Trucks.List(ctx, tenant, actor, domain.TruckFilter{
			ActiveOnly: input.ActiveOnly,
			Limit:      input.Limit,
			Offset:     input.Offset,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]TruckResponse, len(trucks))
		for i, t := range trucks {
			resp[i] = toTruckResponse(t)
		}
		return &ListTrucksOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-truck",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/trucks/{id}",
		Summary:     "Get a truck by ID",
		Tags:        []string{"Trucks"},
	}, func(ctx context.Context, input *TruckPath) (*TruckOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		truck, err := h.Trucks.Get(ctx, tenant, actor, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TruckOutput{Body: toTruckResponse(truck)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-truck",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{tenant}/trucks/{id}",
		Summary:     "Update a truck",
		Tags:        []string{"Trucks"},
	}, func(ctx context.Context, input *UpdateTruckInput) (*TruckOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		truck, err := h.Trucks.Update(ctx, tenant, actor, input.ID, domain.TruckPatch{
			PlateNo:       input.Body.PlateNo,
			TankCapacityL: input.Body.TankCapacityL,
			Active:        input.Body.Active,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TruckOutput{Body: toTruckResponse(truck)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-truck",
		Method:      http.MethodPost,
		Path:        "/api/v1/{tenant}/trucks/{id}/toggle-active",
		Summary:     "Flip a truck between active and inactive",
		Tags:        []string{"Trucks"},
	}, func(ctx context.Context, input *TruckPath) (*TruckOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		truck, err := h.Trucks.ToggleActive(ctx, tenant, actor, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TruckOutput{Body: toTruckResponse(truck)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "truck-availability",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/trucks/{id}/availability",
		Summary:     "Check whether a truck is free during a window",
		Tags:        []string{"Trucks"},
	}, func(ctx context.Context, input *AvailabilityInput) (*AvailabilityOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		avail, err := h.Trucks.Availability(ctx, tenant, actor, input.ID, input.Start, input.End, input.ExcludeOrderID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AvailabilityOutput{Body: AvailabilityResponse{
			Available: avail.Available,
			Conflicts: avail.Conflicts,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-truck",
		Method:        http.MethodDelete,
		Path:          "/api/v1/{tenant}/trucks/{id}",
		Summary:       "Delete a truck without orders",
		Tags:          []string{"Trucks"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TruckPath) (*struct{}, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		if err := h.Trucks.Delete(ctx, tenant, actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

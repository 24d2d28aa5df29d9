package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

// LocationResponse is the API representation of a delivery location.
type LocationResponse struct {
	ID        string   `json:"id" doc:"Unique identifier"`
	ClientID  string   `json:"client_id" doc:"Owning client"`
	Address   string   `json:"address" doc:"Street address"`
	Lat       *float64 `json:"lat,omitempty" doc:"Latitude"`
	Lng       *float64 `json:"lng,omitempty" doc:"Longitude"`
	CreatedAt string   `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string   `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toLocationResponse(l domain.Location) LocationResponse {
	return LocationResponse{
		ID:        l.ID,
		ClientID:  l.ClientID,
		Address:   l.Address,
		Lat:       l.Lat,
		Lng:       l.Lng,
		CreatedAt: formatTime(l.CreatedAt),
		UpdatedAt: formatTime(l.UpdatedAt),
	}
}

type LocationOutput struct {
	Body LocationResponse
}

type LocationPath struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	ID     string `path:"id" doc:"Location ID"`
}

type CreateLocationInput struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	Body   struct {
		ClientID string   `json:"client_id" doc:"Owning client"`
		Address  string   `json:"address" doc:"Street address"`
		Lat      *float64 `json:"lat,omitempty" doc:"Latitude"`
		Lng      *float64 `json:"lng,omitempty" doc:"Longitude"`
	}
}

type ListLocationsInput struct {
	Tenant   string `path:"tenant" doc:"Tenant slug"`
	ClientID string `query:"client_id" required:"false" doc:"Filter by client"`
	Search   string `query:"search" required:"false" doc:"Match address"`
	Limit    int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListLocationsOutput struct {
	Body []LocationResponse
}

type UpdateLocationInput struct {
	LocationPath
	Body struct {
		ClientID *string  `json:"client_id,omitempty" doc:"New owning client"`
		Address  *string  `json:"address,omitempty" doc:"Street address"`
		Lat      *float64 `json:"lat,omitempty" doc:"Latitude"`
		Lng      *float64 `json:"lng,omitempty" doc:"Longitude"`
	}
}

func (h *handler) registerLocations(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-location",
		Method:        http.MethodPost,
		Path:          "/api/v1/{tenant}/locations",
		Summary:       "Create a delivery location",
		Tags:          []string{"Locations"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateLocationInput) (*LocationOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		location, err := h.Locations.Create(ctx, tenant, actor, app.CreateLocationInput{
			ClientID: input.Body.ClientID,
			Address:  input.Body.Address,
			Lat:      input.Body.Lat,
			Lng:      input.Body.Lng,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &LocationOutput{Body: toLocationResponse(location)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-locations",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/locations",
		Summary:     "List delivery locations",
		Tags:        []string{"Locations"},
	}, func(ctx context.Context, input *ListLocationsInput) (*ListLocationsOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		locations, err := h.Locations.List(ctx, tenant, actor, domain.LocationFilter{
			ClientID: input.ClientID,
			Search:   input.Search,
			Limit:    input.Limit,
			Offset:   input.Offset,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]LocationResponse, len(locations))
		for i, l := range locations {
			resp[i] = toLocationResponse(l)
		}
		return &ListLocationsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-location",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/locations/{id}",
		Summary:     "Get a delivery location by ID",
		Tags:        []string{"Locations"},
	}, func(ctx context.Context, input *LocationPath) (*LocationOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		location, err := h.Locations.Get(ctx, tenant, actor, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &LocationOutput{Body: toLocationResponse(location)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-location",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{tenant}/locations/{id}",
		Summary:     "Update a delivery location",
		Tags:        []string{"Locations"},
	}, func(ctx context.Context, input *UpdateLocationInput) (*LocationOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		location, err := h.Locations.Update(ctx, tenant, actor, input.ID, domain.LocationPatch{
			ClientID: input.Body.ClientID,
			Address:  input.Body.Address,
			Lat:      input.Body.Lat,
			Lng:      input.Body.Lng,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &LocationOutput{Body: toLocationResponse(location)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-location",
		Method:        http.MethodDelete,
		Path:          "/api/v1/{tenant}/locations/{id}",
		Summary:       "Delete a location without orders",
		Tags:          []string{"Locations"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *LocationPath) (*struct{}, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		if err := h.Locations.Delete(ctx, tenant, actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

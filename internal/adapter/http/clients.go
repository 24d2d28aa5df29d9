package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

// ClientResponse is the API representation of a client.
type ClientResponse struct {
	ID            string `json:"id" doc:"Unique identifier"`
	Name          string `json:"name" doc:"Client name"`
	ContactPerson string `json:"contact_person" doc:"Contact person"`
	ContactPhone  string `json:"contact_phone" doc:"Contact phone"`
	ContactEmail  string `json:"contact_email" doc:"Contact email"`
	CreatedAt     string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt     string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toClientResponse(c domain.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		ContactPhone:  c.ContactPhone,
		ContactEmail:  c.ContactEmail,
		CreatedAt:     formatTime(c.CreatedAt),
		UpdatedAt:     formatTime(c.UpdatedAt),
	}
}

type ClientOutput struct {
	Body ClientResponse
}

type ClientPath struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	ID     string `path:"id" doc:"Client ID"`
}

type CreateClientInput struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	Body   struct {
		Name          string `json:"name" doc:"Client name"`
		ContactPerson string `json:"contact_person,omitempty" doc:"Contact person"`
		ContactPhone  string `json:"contact_phone,omitempty" doc:"Contact phone"`
		ContactEmail  string `json:"contact_email,omitempty" doc:"Contact email"`
	}
}

type ListClientsInput struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	Search string `query:"search" required:"false" doc:"Match name, contact person or email"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListClientsOutput struct {
	Body []ClientResponse
}

type UpdateClientInput struct {
	ClientPath
	Body struct {
		Name          *string `json:"name,omitempty" doc:"Client name"`
		ContactPerson *string `json:"contact_person,omitempty" doc:"Contact person"`
		ContactPhone  *string `json:"contact_phone,omitempty" doc:"Contact phone"`
		ContactEmail  *string `json:"contact_email,omitempty" doc:"Contact email"`
	}
}

func (h *handler) registerClients(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/api/v1/{tenant}/clients",
		Summary:       "Create a client",
		Tags:          []string{"Clients"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateClientInput) (*ClientOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		client, err := h.Clients.Create(ctx, tenant, actor, app.CreateClientInput{
			Name:          input.Body.Name,
			ContactPerson: input.Body.ContactPerson,
			ContactPhone:  input.Body.ContactPhone,
			ContactEmail:  input.Body.ContactEmail,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClientOutput{Body: toClientResponse(client)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-clients",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/clients",
		Summary:     "List clients",
		Tags:        []string{"Clients"},
	}, func(ctx context.Context, input *ListClientsInput) (*ListClientsOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		clients, err := h.Clients.List(ctx, tenant, actor, domain.ClientFilter{
			Search: input.Search,
			Limit:  input.Limit,
			Offset: input.Offset,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ClientResponse, len(clients))
		for i, c := range clients {
			resp[i] = toClientResponse(c)
		}
		return &ListClientsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-client",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/clients/{id}",
		Summary:     "Get a client by ID",
		Tags:        []string{"Clients"},
	}, func(ctx context.Context, input *ClientPath) (*ClientOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		client, err := h.Clients.Get(ctx, tenant, actor, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClientOutput{Body: toClientResponse(client)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-client",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{tenant}/clients/{id}",
		Summary:     "Update a client",
		Tags:        []string{"Clients"},
	}, func(ctx context.Context, input *UpdateClientInput) (*ClientOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		client, err := h.Clients.Update(ctx, tenant, actor, input.ID, domain.ClientPatch{
			Name:          input.Body.Name,
			ContactPerson: input.Body.ContactPerson,
			ContactPhone:  input.Body.ContactPhone,
			ContactEmail:  input.Body.ContactEmail,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ClientOutput{Body: toClientResponse(client)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-client",
		Method:        http.MethodDelete,
		Path:          "/api/v1/{tenant}/clients/{id}",
		Summary:       "Delete a client without locations",
		Tags:          []string{"Clients"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ClientPath) (*struct{}, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		if err := h.Clients.Delete(ctx, tenant, actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

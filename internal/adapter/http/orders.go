package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

// OrderResponse is the API representation of a fuel order.
type OrderResponse struct {
	ID                 string   `json:"id" doc:"Unique identifier"`
	TenantID           string   `json:"tenant_id" doc:"Owning tenant"`
	ClientID           string   `json:"client_id" doc:"Ordering client"`
	LocationID         string   `json:"location_id" doc:"Delivery location"`
	TruckID            *string  `json:"truck_id,omitempty" doc:"Assigned truck, set when scheduled"`
	DriverID           *string  `json:"driver_id,omitempty" doc:"Assigned driver, set when dispatched"`
	CreatedBy          string   `json:"created_by" doc:"User who created the order"`
	FuelLiters         int      `json:"fuel_liters" doc:"Requested quantity in liters"`
	Status             string   `json:"status" doc:"Lifecycle state"`
	WindowStart        *string  `json:"window_start,omitempty" doc:"Delivery window start (ISO 8601)"`
	WindowEnd          *string  `json:"window_end,omitempty" doc:"Delivery window end (ISO 8601)"`
	DeliveredLiters    *int     `json:"delivered_liters,omitempty" doc:"Quantity actually delivered"`
	DeliveredAt        *string  `json:"delivered_at,omitempty" doc:"Delivery timestamp (ISO 8601)"`
	CancellationReason *string  `json:"cancellation_reason,omitempty" doc:"Reason given on cancellation"`
	CreatedAt          string   `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt          string   `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
	NextEvents         []string `json:"next_events,omitempty" doc:"Lifecycle events allowed from the current status"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:                 o.ID,
		TenantID:           o.TenantID,
		ClientID:           o.ClientID,
		LocationID:         o.LocationID,
		TruckID:            o.TruckID,
		DriverID:           o.DriverID,
		CreatedBy:          o.CreatedBy,
		FuelLiters:         o.FuelLiters,
		Status:             string(o.Status),
		WindowStart:        formatOptionalTime(o.WindowStart),
		WindowEnd:          formatOptionalTime(o.WindowEnd),
		DeliveredLiters:    o.DeliveredLiters,
		DeliveredAt:        formatOptionalTime(o.DeliveredAt),
		CancellationReason: o.CancellationReason,
		CreatedAt:          formatTime(o.CreatedAt),
		UpdatedAt:          formatTime(o.UpdatedAt),
	}
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	resp := make([]OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

// OrderOutput wraps a single order.
type OrderOutput struct {
	Body OrderResponse
}

func (h *handler) orderOutput(o domain.Order) *OrderOutput {
	resp := toOrderResponse(o)
	for _, e := range h.Orders.NextEvents(o) {
		resp.NextEvents = append(resp.NextEvents, string(e))
	}
	return &OrderOutput{Body: resp}
}

// OrderPath addresses one order of a tenant.
type OrderPath struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	ID     string `path:"id" doc:"Order ID"`
}

// --- Create Order ---

type CreateOrderInput struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	Body   struct {
		ClientID    string     `json:"client_id" doc:"Ordering client"`
		LocationID  string     `json:"location_id" doc:"Delivery location owned by the client"`
		FuelLiters  int        `json:"fuel_liters" doc:"Requested quantity, at least 100 liters"`
		WindowStart *time.Time `json:"window_start,omitempty" doc:"Delivery window start"`
		WindowEnd   *time.Time `json:"window_end,omitempty" doc:"Delivery window end"`
	}
}

// --- List Orders ---

type ListOrdersInput struct {
	Tenant     string    `path:"tenant" doc:"Tenant slug"`
	Status     []string  `query:"status" required:"false" doc:"Filter by status (comma-separated)"`
	ClientID   string    `query:"client_id" required:"false" doc:"Filter by client"`
	LocationID string    `query:"location_id" required:"false" doc:"Filter by location"`
	TruckID    string    `query:"truck_id" required:"false" doc:"Filter by truck"`
	DriverID   string    `query:"driver_id" required:"false" doc:"Filter by driver"`
	From       time.Time `query:"from" required:"false" doc:"Created at or after (ISO 8601)"`
	To         time.Time `query:"to" required:"false" doc:"Created at or before (ISO 8601)"`
	Limit      int       `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset     int       `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListOrdersOutput struct {
	Body []OrderResponse
}

// --- Update Order ---

type UpdateOrderInput struct {
	OrderPath
	Body struct {
		ClientID    *string    `json:"client_id,omitempty" doc:"New client"`
		LocationID  *string    `json:"location_id,omitempty" doc:"New location"`
		FuelLiters  *int       `json:"fuel_liters,omitempty" doc:"New quantity"`
		WindowStart *time.Time `json:"window_start,omitempty" doc:"New window start"`
		WindowEnd   *time.Time `json:"window_end,omitempty" doc:"New window end"`
	}
}

// --- Lifecycle ---

type ScheduleOrderInput struct {
	OrderPath
	Body struct {
		TruckID string `json:"truck_id" doc:"Active truck with enough capacity and a free window"`
	}
}

type DispatchOrderInput struct {
	OrderPath
	Body struct {
		DriverID string `json:"driver_id" doc:"User with the DRIVER role"`
	}
}

type DeliverOrderInput struct {
	OrderPath
	Body struct {
		DeliveredLiters int `json:"delivered_liters" doc:"Delivered quantity, at most 10% above the ordered one"`
	}
}

type CancelOrderBody struct {
	Reason *string `json:"reason,omitempty" maxLength:"1000" doc:"Optional cancellation reason"`
}

type CancelOrderInput struct {
	OrderPath
	Body *CancelOrderBody `required:"false"`
}

func (h *handler) registerOrders(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-order",
		Method:        http.MethodPost,
		Path:          "/api/v1/{tenant}/orders",
		Summary:       "Create a draft order",
		Tags:          []string{"Orders"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateOrderInput) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		order, err := h.Orders.Create(ctx, tenant, actor, app.CreateOrderInput{
			ClientID:    input.Body.ClientID,
			LocationID:  input.Body.LocationID,
			FuelLiters:  input.Body.FuelLiters,
			WindowStart: input.Body.WindowStart,
			WindowEnd:   input.Body.WindowEnd,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/orders",
		Summary:     "List orders",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *ListOrdersInput) (*ListOrdersOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}

		filter := domain.OrderFilter{
			ClientID:   input.ClientID,
			LocationID: input.LocationID,
			TruckID:    input.TruckID,
			DriverID:   input.DriverID,
			From:       optionalTime(input.From),
			To:         optionalTime(input.To),
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		for _, s := range input.Status {
			status := domain.OrderStatus(s)
			if !status.Valid() {
				return nil, huma.Error422UnprocessableEntity("invalid status filter", &huma.ErrorDetail{
					Message:  "unknown status",
					Location: "query.status",
					Value:    s,
				})
			}
			filter.Statuses = append(filter.Statuses, status)
		}

		orders, err := h.Orders.List(ctx, tenant, actor, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListOrdersOutput{Body: toOrderResponses(orders)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/orders/{id}",
		Summary:     "Get an order by ID",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *OrderPath) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		order, err := h.Orders.Get(ctx, tenant, actor, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-order",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{tenant}/orders/{id}",
		Summary:     "Update a draft order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *UpdateOrderInput) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		order, err := h.Orders.Update(ctx, tenant, actor, input.ID, domain.OrderPatch{
			ClientID:    input.Body.ClientID,
			LocationID:  input.Body.LocationID,
			FuelLiters:  input.Body.FuelLiters,
			WindowStart: input.Body.WindowStart,
			WindowEnd:   input.Body.WindowEnd,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-order",
		Method:        http.MethodDelete,
		Path:          "/api/v1/{tenant}/orders/{id}",
		Summary:       "Delete a draft order",
		Tags:          []string{"Orders"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *OrderPath) (*struct{}, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		if err := h.Orders.Delete(ctx, tenant, actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/{tenant}/orders/{id}/submit",
		Summary:     "Submit a draft order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *OrderPath) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		order, err := h.Orders.Submit(ctx, tenant, actor, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "schedule-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/{tenant}/orders/{id}/schedule",
		Summary:     "Assign a truck to a submitted order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *ScheduleOrderInput) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		order, err := h.Orders.Schedule(ctx, tenant, actor, input.ID, input.Body.TruckID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dispatch-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/{tenant}/orders/{id}/dispatch",
		Summary:     "Send a scheduled order on its way with a driver",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *DispatchOrderInput) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		order, err := h.Orders.Dispatch(ctx, tenant, actor, input.ID, input.Body.DriverID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deliver-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/{tenant}/orders/{id}/deliver",
		Summary:     "Record the delivery of an en-route order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *DeliverOrderInput) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		order, err := h.Orders.Deliver(ctx, tenant, actor, input.ID, input.Body.DeliveredLiters)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/{tenant}/orders/{id}/cancel",
		Summary:     "Cancel an order that is not yet delivered",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *CancelOrderInput) (*OrderOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		var reason *string
		if input.Body != nil {
			reason = input.Body.Reason
		}
		order, err := h.Orders.Cancel(ctx, tenant, actor, input.ID, reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.orderOutput(order), nil
	})
}

package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fuelops/internal/app"
)

type OrderStatsResponse struct {
	Period   string         `json:"period" doc:"Statistics period"`
	Since    string         `json:"since" doc:"Period start (ISO 8601)"`
	Total    int            `json:"total" doc:"Orders created since the period start"`
	ByStatus map[string]int `json:"by_status" doc:"Order counts per status"`
}

type FleetStatsResponse struct {
	TotalTrucks        int     `json:"total_trucks"`
	ActiveTrucks       int     `json:"active_trucks"`
	InUseTrucks        int     `json:"in_use_trucks" doc:"Trucks carrying a SCHEDULED or EN_ROUTE order"`
	TotalCapacityL     int     `json:"total_capacity_l"`
	UsedCapacityL      int     `json:"used_capacity_l"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

type DashboardResponse struct {
	Orders OrderStatsResponse `json:"orders"`
	Fleet  FleetStatsResponse `json:"fleet"`
	Recent []OrderResponse    `json:"recent" doc:"Most recently created orders"`
}

type DashboardInput struct {
	Tenant string `path:"tenant" doc:"Tenant slug"`
	Period string `query:"period" required:"false" default:"today" enum:"today,week,month" doc:"Statistics period"`
}

type DashboardOutput struct {
	Body DashboardResponse
}

func toDashboardResponse(d app.Dashboard) DashboardResponse {
	byStatus := make(map[string]int, len(d.Orders.ByStatus))
	for status, n := range d.Orders.ByStatus {
		byStatus[string(status)] = n
	}
	return DashboardResponse{
		Orders: OrderStatsResponse{
			Period:   string(d.Orders.Period),
			Since:    formatTime(d.Orders.Since),
			Total:    d.Orders.Total,
			ByStatus: byStatus,
		},
		Fleet: FleetStatsResponse{
			TotalTrucks:        d.Fleet.TotalTrucks,
			ActiveTrucks:       d.Fleet.ActiveTrucks,
			InUseTrucks:        d.Fleet.InUseTrucks,
			TotalCapacityL:     d.Fleet.TotalCapacityL,
			UsedCapacityL:      d.Fleet.UsedCapacityL,
			UtilizationPercent: d.Fleet.UtilizationPercent,
		},
		Recent: toOrderResponses(d.Recent),
	}
}

func (h *handler) registerDashboard(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/dashboard",
		Summary:     "Order and fleet overview",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *DashboardInput) (*DashboardOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		dashboard, err := h.Dashboard.Overview(ctx, tenant, actor, app.Period(input.Period))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DashboardOutput{Body: toDashboardResponse(dashboard)}, nil
	})
}

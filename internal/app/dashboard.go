package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// Period selects the start of the dashboard's order statistics.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

const recentOrders = 10

// OrderStats counts orders created since a period start.
type OrderStats struct {
	Period   Period
	Since    time.Time
	Total    int
	ByStatus map[domain.OrderStatus]int
}

// FleetStats summarises truck usage. A truck is in use while it carries a
// SCHEDULED or EN_ROUTE order.
type FleetStats struct {
	TotalTrucks        int
	ActiveTrucks       int
	InUseTrucks        int
	TotalCapacityL     int
	UsedCapacityL      int
	UtilizationPercent float64
}

// Dashboard is the overview shown to every role.
type Dashboard struct {
	Orders OrderStats
	Fleet  FleetStats
	Recent []domain.Order
}

// DashboardService aggregates order and fleet statistics.
type DashboardService struct {
	store domain.Store
	now   func() time.Time
}

// NewDashboardService creates a service reading from store.
func NewDashboardService(store domain.Store) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

// Overview returns order statistics for period, fleet statistics and the most
// recently created orders.
func (s *DashboardService) Overview(ctx context.Context, tenant domain.TenantID, actor domain.Actor, period Period) (Dashboard, error) {
	if err := authorize(tenant, actor, domain.ActionView, domain.ResourceDashboard, nil); err != nil {
		return Dashboard{}, err
	}

	orders, err := s.OrderStats(ctx, tenant, period)
	if err != nil {
		return Dashboard{}, err
	}
	fleet, err := s.FleetStats(ctx, tenant)
	if err != nil {
		return Dashboard{}, err
	}

	filter := domain.OrderFilter{Limit: recentOrders}
	if actor.Role == domain.RoleDriver {
		filter.DriverID = actor.UserID
	}
	recent, err := s.store.Orders().List(ctx, tenant, filter)
	if err != nil {
		return Dashboard{}, fmt.Errorf("listing recent orders: %w", err)
	}

	return Dashboard{Orders: orders, Fleet: fleet, Recent: recent}, nil
}

// OrderStats counts orders created since the start of period.
func (s *DashboardService) OrderStats(ctx context.Context, tenant domain.TenantID, period Period) (OrderStats, error) {
	since, err := periodStart(s.now().UTC(), period)
	if err != nil {
		return OrderStats{}, err
	}

	orders, err := s.store.Orders().List(ctx, tenant, domain.OrderFilter{From: &since})
	if err != nil {
		return OrderStats{}, fmt.Errorf("listing orders: %w", err)
	}

	stats := OrderStats{
		Period:   period,
		Since:    since,
		Total:    len(orders),
		ByStatus: make(map[domain.OrderStatus]int, len(domain.OrderStatuses)),
	}
	for _, status := range domain.OrderStatuses {
		stats.ByStatus[status] = 0
	}
	for _, o := range orders {
		stats.ByStatus[o.Status]++
	}
	return stats, nil
}

// FleetStats reports truck counts and the share of active capacity committed
// to SCHEDULED or EN_ROUTE orders.
func (s *DashboardService) FleetStats(ctx context.Context, tenant domain.TenantID) (FleetStats, error) {
	trucks, err := s.store.Trucks().List(ctx, tenant, domain.TruckFilter{})
	if err != nil {
		return FleetStats{}, fmt.Errorf("listing trucks: %w", err)
	}
	current, err := s.store.Orders().List(ctx, tenant, domain.OrderFilter{
		Statuses: []domain.OrderStatus{domain.StatusScheduled, domain.StatusEnRoute},
	})
	if err != nil {
		return FleetStats{}, fmt.Errorf("listing current orders: %w", err)
	}

	var stats FleetStats
	stats.TotalTrucks = len(trucks)
	for _, t := range trucks {
		if t.Active {
			stats.ActiveTrucks++
			stats.TotalCapacityL += t.TankCapacityL
		}
	}

	inUse := make(map[string]struct{})
	for _, o := range current {
		stats.UsedCapacityL += o.FuelLiters
		if o.TruckID != nil {
			inUse[*o.TruckID] = struct{}{}
		}
	}
	stats.InUseTrucks = len(inUse)

	if stats.TotalCapacityL > 0 {
		pct := float64(stats.UsedCapacityL) / float64(stats.TotalCapacityL) * 100
		stats.UtilizationPercent = math.Round(pct*100) / 100
	}
	return stats, nil
}

func periodStart(now time.Time, period Period) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodToday, "":
		return today, nil
	case PeriodWeek:
		// Weeks start on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -offset), nil
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, &domain.ValidationError{Field: "period", Reason: "must be one of today, week, month"}
	}
}

package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

func TestDashboard_Overview(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 10000)
	ctx := context.Background()

	_, err := env.trucks.Create(ctx, acme.tenant, acme.admin, app.CreateTruckInput{PlateNo: "IDLE-1", TankCapacityL: 10000})
	require.NoError(t, err)
	_, err = env.trucks.Create(ctx, acme.tenant, acme.admin, app.CreateTruckInput{PlateNo: "OFF-1", TankCapacityL: 5000, Active: ptr(false)})
	require.NoError(t, err)

	_, err = env.orders.Create(ctx, acme.tenant, acme.dispatcher, acme.orderInput(1000, at(6, 0), at(7, 0)))
	require.NoError(t, err)
	scheduled := env.submitted(t, acme, 5000, at(9, 0), at(10, 0))
	_, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, scheduled.ID, acme.truck.ID)
	require.NoError(t, err)

	overview, err := env.dashboard.Overview(ctx, acme.tenant, acme.clientRep, app.PeriodMonth)
	require.NoError(t, err)

	assert.Equal(t, 2, overview.Orders.Total)
	assert.Equal(t, 1, overview.Orders.ByStatus[domain.StatusDraft])
	assert.Equal(t, 1, overview.Orders.ByStatus[domain.StatusScheduled])
	assert.Equal(t, 0, overview.Orders.ByStatus[domain.StatusDelivered])

	assert.Equal(t, 3, overview.Fleet.TotalTrucks)
	assert.Equal(t, 2, overview.Fleet.ActiveTrucks)
	assert.Equal(t, 1, overview.Fleet.InUseTrucks)
	assert.Equal(t, 20000, overview.Fleet.TotalCapacityL)
	assert.Equal(t, 5000, overview.Fleet.UsedCapacityL)
	assert.InDelta(t, 25.0, overview.Fleet.UtilizationPercent, 0.001)

	assert.Len(t, overview.Recent, 2)

	_, err = env.dashboard.Overview(ctx, acme.tenant, acme.admin, "year")
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

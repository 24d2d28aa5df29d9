package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/fuelops/internal/adapter/fsm"
	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

// --- Mocks ---

type spyRecorder struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (r *spyRecorder) Record(_ context.Context, e domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *spyRecorder) Entries() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEntry(nil), r.entries...)
}

func (r *spyRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// --- Fixtures ---

// tenantEnv is one seeded tenant with one actor per role and a client,
// location and truck.
type tenantEnv struct {
	tenant     domain.TenantID
	admin      domain.Actor
	dispatcher domain.Actor
	driver     domain.Actor
	clientRep  domain.Actor
	client     domain.Client
	location   domain.Location
	truck      domain.Truck
}

type testEnv struct {
	db        *sqlite.DB
	recorder  *spyRecorder
	tenants   *app.TenantService
	clients   *app.ClientService
	locations *app.LocationService
	trucks    *app.TruckService
	orders    *app.OrderService
	activity  *app.ActivityService
	dashboard *app.DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	recorder := &spyRecorder{}
	return &testEnv{
		db:        db,
		recorder:  recorder,
		tenants:   app.NewTenantService(db),
		clients:   app.NewClientService(db, recorder, nil),
		locations: app.NewLocationService(db, recorder, nil),
		trucks:    app.NewTruckService(db, recorder, nil),
		orders:    app.NewOrderService(db, fsm.New(), recorder, nil),
		activity:  app.NewActivityService(db.ActivityLogs()),
		dashboard: app.NewDashboardService(db),
	}
}

func (e *testEnv) seed(t *testing.T, slug string, capacity int) tenantEnv {
	t.Helper()
	ctx := context.Background()

	tenant, err := e.tenants.Create(ctx, app.CreateTenantInput{Name: slug, Slug: slug})
	require.NoError(t, err)
	te := tenantEnv{tenant: tenant.Scope()}

	actor := func(role domain.Role, email string) domain.Actor {
		u, err := e.tenants.CreateUser(ctx, te.tenant, app.CreateUserInput{Name: string(role), Email: email + "@" + slug + ".test", Role: role})
		require.NoError(t, err)
		return domain.Actor{UserID: u.ID, TenantID: u.TenantID, Role: u.Role, IP: "127.0.0.1"}
	}
	te.admin = actor(domain.RoleAdmin, "admin")
	te.dispatcher = actor(domain.RoleDispatcher, "dispatcher")
	te.driver = actor(domain.RoleDriver, "driver")
	te.clientRep = actor(domain.RoleClientRep, "rep")

	te.client, err = e.clients.Create(ctx, te.tenant, te.admin, app.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)
	te.location, err = e.locations.Create(ctx, te.tenant, te.admin, app.CreateLocationInput{ClientID: te.client.ID, Address: "1 Refinery Way"})
	require.NoError(t, err)
	te.truck, err = e.trucks.Create(ctx, te.tenant, te.admin, app.CreateTruckInput{PlateNo: "FUEL-" + slug, TankCapacityL: capacity})
	require.NoError(t, err)

	e.recorder.Reset()
	return te
}

func (te tenantEnv) orderInput(liters int, start, end time.Time) app.CreateOrderInput {
	return app.CreateOrderInput{
		ClientID:    te.client.ID,
		LocationID:  te.location.ID,
		FuelLiters:  liters,
		WindowStart: &start,
		WindowEnd:   &end,
	}
}

// submitted creates and submits an order.
func (e *testEnv) submitted(t *testing.T, te tenantEnv, liters int, start, end time.Time) domain.Order {
	t.Helper()
	ctx := context.Background()
	o, err := e.orders.Create(ctx, te.tenant, te.dispatcher, te.orderInput(liters, start, end))
	require.NoError(t, err)
	o, err = e.orders.Submit(ctx, te.tenant, te.dispatcher, o.ID)
	require.NoError(t, err)
	return o
}

// enRoute creates an order and moves it to EN_ROUTE with te.driver.
func (e *testEnv) enRoute(t *testing.T, te tenantEnv, liters int) domain.Order {
	t.Helper()
	ctx := context.Background()
	o := e.submitted(t, te, liters, at(8, 0), at(9, 0))
	o, err := e.orders.Schedule(ctx, te.tenant, te.dispatcher, o.ID, te.truck.ID)
	require.NoError(t, err)
	o, err = e.orders.Dispatch(ctx, te.tenant, te.dispatcher, o.ID, te.driver.UserID)
	require.NoError(t, err)
	return o
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func asDomainError(t *testing.T, err error) *domain.DomainError {
	t.Helper()
	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	return domainErr
}

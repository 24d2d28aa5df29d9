package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
	"github.com/neomorfeo/fuelops/internal/domain"
)

// newTestDB creates an in-memory SQLite store for testing.
func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture is one tenant with a dispatcher, a driver, a client, a location and a truck.
type fixture struct {
	tenant     domain.TenantID
	dispatcher domain.User
	driver     domain.User
	client     domain.Client
	location   domain.Location
	truck      domain.Truck
}

func seedTenant(t *testing.T, db *sqlite.DB, slug string) fixture {
	t.Helper()
	ctx := context.Background()

	tenant := domain.NewTenant("t-"+slug, slug, slug)
	if err := db.Tenants().Create(ctx, tenant); err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
	f := fixture{tenant: tenant.Scope()}

	var err error
	f.dispatcher, err = db.Users().Create(ctx, f.tenant, domain.User{Name: "Dee", Email: "dispatch@" + slug + ".test", Role: domain.RoleDispatcher})
	if err != nil {
		t.Fatalf("creating dispatcher: %v", err)
	}
	f.driver, err = db.Users().Create(ctx, f.tenant, domain.User{Name: "Dan", Email: "driver@" + slug + ".test", Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("creating driver: %v", err)
	}
	f.client, err = db.Clients().Create(ctx, f.tenant, domain.Client{Name: "North Site"})
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	f.location, err = db.Locations().Create(ctx, f.tenant, domain.Location{ClientID: f.client.ID, Address: "1 Depot Rd"})
	if err != nil {
		t.Fatalf("creating location: %v", err)
	}
	f.truck, err = db.Trucks().Create(ctx, f.tenant, domain.Truck{PlateNo: "FUEL-1", TankCapacityL: 5000, Active: true})
	if err != nil {
		t.Fatalf("creating truck: %v", err)
	}
	return f
}

func (f fixture) order(liters int) domain.Order {
	return domain.Order{
		ClientID:   f.client.ID,
		LocationID: f.location.ID,
		CreatedBy:  f.dispatcher.ID,
		FuelLiters: liters,
	}
}

func mustCreateOrder(t *testing.T, db *sqlite.DB, f fixture, o domain.Order) domain.Order {
	t.Helper()
	created, err := db.Orders().Create(context.Background(), f.tenant, o)
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}
	return created
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

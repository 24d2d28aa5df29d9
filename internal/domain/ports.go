package domain

import "context"

// TenantRepository defines the persistence contract for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)
}

// UserRepository defines the persistence contract for tenant users.
type UserRepository interface {
	Create(ctx context.Context, tenant TenantID, user User) (User, error)
	Get(ctx context.Context, tenant TenantID, id string) (User, error)
	GetByEmail(ctx context.Context, tenant TenantID, email string) (User, error)
}

// ClientRepository defines the persistence contract for clients.
type ClientRepository interface {
	Create(ctx context.Context, tenant TenantID, client Client) (Client, error)
	Get(ctx context.Context, tenant TenantID, id string) (Client, error)
	List(ctx context.Context, tenant TenantID, filter ClientFilter) ([]Client, error)
	Update(ctx context.Context, tenant TenantID, client Client) error
	Delete(ctx context.Context, tenant TenantID, id string) error
	CountLocations(ctx context.Context, tenant TenantID, id string) (int, error)
}

// LocationRepository defines the persistence contract for locations.
type LocationRepository interface {
	Create(ctx context.Context, tenant TenantID, location Location) (Location, error)
	Get(ctx context.Context, tenant TenantID, id string) (Location, error)
	List(ctx context.Context, tenant TenantID, filter LocationFilter) ([]Location, error)
	Update(ctx context.Context, tenant TenantID, location Location) error
	Delete(ctx context.Context, tenant TenantID, id string) error
	CountOrders(ctx context.Context, tenant TenantID, id string) (int, error)
}

// TruckRepository defines the persistence contract for delivery trucks.
type TruckRepository interface {
	Create(ctx context.Context, tenant TenantID, truck Truck) (Truck, error)
	Get(ctx context.Context, tenant TenantID, id string) (Truck, error)
	GetByPlate(ctx context.Context, tenant TenantID, plateNo string) (Truck, error)
	List(ctx context.Context, tenant TenantID, filter TruckFilter) ([]Truck, error)
	Update(ctx context.Context, tenant TenantID, truck Truck) error
	Delete(ctx context.Context, tenant TenantID, id string) error
	CountOrders(ctx context.Context, tenant TenantID, id string) (int, error)
}

// OrderRepository defines the persistence contract for orders.
type OrderRepository interface {
	Create(ctx context.Context, tenant TenantID, order Order) (Order, error)
	Get(ctx context.Context, tenant TenantID, id string) (Order, error)
	List(ctx context.Context, tenant TenantID, filter OrderFilter) ([]Order, error)
	Update(ctx context.Context, tenant TenantID, order Order) error
	Delete(ctx context.Context, tenant TenantID, id string) error
	// FindActiveOnTruck returns SCHEDULED or EN_ROUTE orders on the truck whose
	// window overlaps w, excluding the order with id excludeID.
	FindActiveOnTruck(ctx context.Context, tenant TenantID, truckID string, w Window, excludeID string) ([]Order, error)
}

// ActivityLogRepository stores and queries audit entries.
type ActivityLogRepository interface {
	Append(ctx context.Context, entry AuditEntry) (ActivityLog, error)
	List(ctx context.Context, tenant TenantID, filter ActivityFilter) ([]ActivityLog, error)
}

// Store groups the tenant-scoped repositories that share one connection or transaction.
type Store interface {
	Tenants() TenantRepository
	Users() UserRepository
	Clients() ClientRepository
	Locations() LocationRepository
	Trucks() TruckRepository
	Orders() OrderRepository
	ActivityLogs() ActivityLogRepository
}

// TxStore is a Store that can run a unit of work atomically. Writers are
// serialized: fn observes every write committed before it started, and nothing
// fn writes is visible unless fn returns nil.
type TxStore interface {
	Store
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// AuditRecorder records committed mutations. The core never reads entries back.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// TransitionValidator decides whether an event is valid from a status and
// returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current OrderStatus, event OrderEvent) (OrderStatus, error)
	Available(current OrderStatus) []OrderEvent
}

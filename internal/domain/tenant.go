package domain

import "time"

// TenantID identifies the tenant every scoped query and write is bound to.
// Repository methods take it as a separate argument so scoping cannot be skipped.
type TenantID string

// Tenant is an isolated fuel distributor. Tenants are created by an operator
// (see the seed command) and are immutable afterwards.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Scope returns the identifier used to scope data access to this tenant.
func (t Tenant) Scope() TenantID {
	return TenantID(t.ID)
}

// NewTenant creates a tenant stamped with the current time.
func NewTenant(id, name, slug string) Tenant {
	now := time.Now().UTC()
	return Tenant{
		ID:        id,
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Role is the authorization role of a user inside its tenant.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleDispatcher Role = "DISPATCHER"
	RoleDriver     Role = "DRIVER"
	RoleClientRep  Role = "CLIENT_REP"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleDispatcher, RoleDriver, RoleClientRep}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User belongs to exactly one tenant. Drivers and order creators are users.
type User struct {
	ID        string
	TenantID  string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   string
	TenantID string
	Role     Role
	IP       string
}

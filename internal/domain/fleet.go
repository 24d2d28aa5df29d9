package domain

import "time"

// Client is a customer of a tenant. A client cannot be deleted while it owns locations.
type Client struct {
	ID            string
	TenantID      string
	Name          string
	ContactPerson string
	ContactPhone  string
	ContactEmail  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c Client) Snapshot() map[string]any {
	return map[string]any{
		"id":             c.ID,
		"tenant_id":      c.TenantID,
		"name":           c.Name,
		"contact_person": c.ContactPerson,
		"contact_phone":  c.ContactPhone,
		"contact_email":  c.ContactEmail,
	}
}

// ClientPatch carries optional client changes. Nil means unchanged.
type ClientPatch struct {
	Name          *string
	ContactPerson *string
	ContactPhone  *string
	ContactEmail  *string
}

// Location is a delivery address owned by a client. TenantID always equals the
// owning client's tenant. It cannot be deleted while orders reference it.
type Location struct {
	ID        string
	TenantID  string
	ClientID  string
	Address   string
	Lat       *float64
	Lng       *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l Location) Snapshot() map[string]any {
	return map[string]any{
		"id":        l.ID,
		"tenant_id": l.TenantID,
		"client_id": l.ClientID,
		"address":   l.Address,
		"lat":       deref(l.Lat),
		"lng":       deref(l.Lng),
	}
}

// ValidateCoordinates checks latitude and longitude ranges when present.
func ValidateCoordinates(lat, lng *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return &ValidationError{Field: "lat", Reason: "must be between -90 and 90"}
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return &ValidationError{Field: "lng", Reason: "must be between -180 and 180"}
	}
	return nil
}

// LocationPatch carries optional location changes. Nil means unchanged.
type LocationPatch struct {
	ClientID *string
	Address  *string
	Lat      *float64
	Lng      *float64
}

// Truck is a delivery truck of a tenant's fleet. Plate numbers are unique per
// tenant. Trucks referenced by orders are deactivated rather than deleted.
type Truck struct {
	ID            string
	TenantID      string
	PlateNo       string
	TankCapacityL int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Truck) Snapshot() map[string]any {
	return map[string]any{
		"id":              t.ID,
		"tenant_id":       t.TenantID,
		"plate_no":        t.PlateNo,
		"tank_capacity_l": t.TankCapacityL,
		"active":          t.Active,
	}
}

// TruckPatch carries optional truck changes. Nil means unchanged.
type TruckPatch struct {
	PlateNo       *string
	TankCapacityL *int
	Active        *bool
}

// ClientFilter holds optional criteria for listing clients.
type ClientFilter struct {
	Search string
	Limit  int
	Offset int
}

// LocationFilter holds optional criteria for listing locations.
type LocationFilter struct {
	ClientID string
	Search   string
	Limit    int
	Offset   int
}

// TruckFilter holds optional criteria for listing trucks.
type TruckFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ListFilter holds optional criteria for listing tenants.
type ListFilter struct {
	Limit  int
	Offset int
}

package domain

import (
	"fmt"
	"time"
)

// OrderStatus is a lifecycle state of an order. The values are part of the wire contract.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusSubmitted OrderStatus = "SUBMITTED"
	StatusScheduled OrderStatus = "SCHEDULED"
	StatusEnRoute   OrderStatus = "EN_ROUTE"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists all lifecycle states in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusDraft,
	StatusSubmitted,
	StatusScheduled,
	StatusEnRoute,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is one of the six lifecycle states.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderEvent is an action that moves an order between states.
type OrderEvent string

const (
	EventSubmit   OrderEvent = "submit"
	EventSchedule OrderEvent = "schedule"
	EventDispatch OrderEvent = "dispatch"
	EventDeliver  OrderEvent = "deliver"
	EventCancel   OrderEvent = "cancel"
)

// Transition defines a valid state change: an event moves an order from Src to Dst.
type Transition struct {
	Event OrderEvent
	Src   OrderStatus
	Dst   OrderStatus
}

// OrderTransitions defines all valid state changes in the order lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var OrderTransitions = []Transition{
	{Event: EventSubmit, Src: StatusDraft, Dst: StatusSubmitted},
	{Event: EventSchedule, Src: StatusSubmitted, Dst: StatusScheduled},
	{Event: EventDispatch, Src: StatusScheduled, Dst: StatusEnRoute},
	{Event: EventDeliver, Src: StatusEnRoute, Dst: StatusDelivered},
	{Event: EventCancel, Src: StatusDraft, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusSubmitted, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusScheduled, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusEnRoute, Dst: StatusCancelled},
}

const (
	// MinFuelLiters is the smallest quantity an order may request.
	MinFuelLiters = 100
	// MaxCancellationReason bounds the free-text cancellation reason.
	MaxCancellationReason = 1000
)

// Order is a fuel delivery request. It is mutated only through the lifecycle engine.
type Order struct {
	ID                 string
	TenantID           string
	ClientID           string
	LocationID         string
	TruckID            *string
	DriverID           *string
	CreatedBy          string
	FuelLiters         int
	Status             OrderStatus
	WindowStart        *time.Time
	WindowEnd          *time.Time
	DeliveredLiters    *int
	DeliveredAt        *time.Time
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Window returns the delivery window when both bounds are set.
func (o Order) Window() (Window, bool) {
	if o.WindowStart == nil || o.WindowEnd == nil {
		return Window{}, false
	}
	return Window{Start: *o.WindowStart, End: *o.WindowEnd}, true
}

// DeliveryWithinTolerance reports whether delivered liters are positive and at most
// 10% above the ordered quantity. For integer liters, delivered <= fuel*1.1 is
// delivered <= fuel + fuel/10, which never multiplies the caller's value.
func (o Order) DeliveryWithinTolerance(delivered int) bool {
	return delivered > 0 && delivered <= o.FuelLiters+o.FuelLiters/10
}

// Snapshot returns the order's attributes keyed by their wire names, for audit entries.
func (o Order) Snapshot() map[string]any {
	return map[string]any{
		"id":                  o.ID,
		"tenant_id":           o.TenantID,
		"client_id":           o.ClientID,
		"location_id":         o.LocationID,
		"truck_id":            deref(o.TruckID),
		"driver_id":           deref(o.DriverID),
		"created_by":          o.CreatedBy,
		"fuel_liters":         o.FuelLiters,
		"status":              string(o.Status),
		"window_start":        formatTime(o.WindowStart),
		"window_end":          formatTime(o.WindowEnd),
		"delivered_liters":    deref(o.DeliveredLiters),
		"delivered_at":        formatTime(o.DeliveredAt),
		"cancellation_reason": deref(o.CancellationReason),
	}
}

// Label is the human-readable reference used in audit descriptions.
func (o Order) Label() string {
	return fmt.Sprintf("Order #%s", o.ID)
}

// OrderPatch carries the fields a DRAFT order may change. Nil means unchanged.
type OrderPatch struct {
	ClientID    *string
	LocationID  *string
	FuelLiters  *int
	WindowStart *time.Time
	WindowEnd   *time.Time
}

// Empty reports whether the patch changes nothing.
func (p OrderPatch) Empty() bool {
	return p.ClientID == nil && p.LocationID == nil && p.FuelLiters == nil &&
		p.WindowStart == nil && p.WindowEnd == nil
}

// OrderFilter holds optional criteria for listing orders.
type OrderFilter struct {
	Statuses   []OrderStatus
	ClientID   string
	LocationID string
	TruckID    string
	DriverID   string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// ValidateWindow checks that end is after start when both are present.
func ValidateWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return &ValidationError{Field: "window_end", Reason: "must be after window_start"}
	}
	return nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

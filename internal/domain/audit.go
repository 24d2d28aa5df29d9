package domain

import "time"

// Subject types recorded in the activity log.
const (
	SubjectOrder    = "Order"
	SubjectClient   = "Client"
	SubjectLocation = "Location"
	SubjectTruck    = "Truck"
)

// Audit actions that are not derived from an order status.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionToggled = "toggled"
)

// AuditEntry describes one committed mutation.
type AuditEntry struct {
	TenantID    string
	UserID      string
	SubjectType string
	SubjectID   string
	Action      string
	OldValues   map[string]any
	NewValues   map[string]any
	Description string
	IPAddress   string
}

// ActivityLog is a persisted audit entry.
type ActivityLog struct {
	ID string
	AuditEntry
	CreatedAt time.Time
}

// ActivityFilter holds optional criteria for listing activity logs.
type ActivityFilter struct {
	SubjectType string
	SubjectID   string
	Action      string
	UserID      string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// NewAuditEntry builds an entry for a mutation performed by actor in tenant.
func NewAuditEntry(tenant TenantID, actor Actor, subjectType, subjectID, action string) AuditEntry {
	return AuditEntry{
		TenantID:    string(tenant),
		UserID:      actor.UserID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Action:      action,
		IPAddress:   actor.IP,
	}
}

// TransitionAction is the audit action recorded for a move into status,
// e.g. "scheduled" or "en_route".
func TransitionAction(status OrderStatus) string {
	switch status {
	case StatusSubmitted:
		return "submitted"
	case StatusScheduled:
		return "scheduled"
	case StatusEnRoute:
		return "en_route"
	case StatusDelivered:
		return "delivered"
	case StatusCancelled:
		return "cancelled"
	default:
		return "draft"
	}
}

// ChangedValues returns the old and new values of the keys whose values differ.
func ChangedValues(before, after map[string]any) (map[string]any, map[string]any) {
	oldValues := make(map[string]any)
	newValues := make(map[string]any)
	for k, v := range after {
		if before[k] != v {
			oldValues[k] = before[k]
			newValues[k] = v
		}
	}
	return oldValues, newValues
}

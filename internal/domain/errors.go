package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantMismatch = errors.New("entity belongs to a different tenant")
)

// NotFoundError is returned when an entity does not exist in the caller's tenant.
// Entities owned by another tenant are reported the same way.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ValidationError is returned for malformed or missing input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DomainError is returned when a business rule refuses an operation.
// Err carries the underlying cause when there is one (e.g. a *TransitionError).
type DomainError struct {
	Reason string
	Err    error
}

func (e *DomainError) Error() string {
	return e.Reason
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// AuthorizationError is returned when the actor's role does not permit an action.
type AuthorizationError struct {
	Role     Role
	Action   Action
	Resource Resource
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %q may not %s %s", e.Role, e.Action, e.Resource)
}

// ConflictError is returned when a unique value is already in use.
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s %q is already in use", e.Resource, e.Field, e.Value)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   OrderEvent
	Current OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

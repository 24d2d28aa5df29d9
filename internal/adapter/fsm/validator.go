// Package fsm backs the order lifecycle with looplab/fsm.
package fsm

import (
	"context"
	"errors"
	"slices"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/fuelops/internal/domain"
)

var _ domain.TransitionValidator = (*Validator)(nil)

// Validator checks order events against domain.OrderTransitions.
//
// looplab/fsm keeps the current state inside the machine, so each call seeds
// a fresh machine with the order's status. Guards that need data (roles,
// truck availability, quantities) stay in the app layer.
type Validator struct {
	events loopfsm.Events
}

// New builds the event table once. Rows sharing an event and destination
// collapse into one EventDesc, so cancel carries all four active sources.
func New() *Validator {
	var events loopfsm.Events
	index := make(map[[2]string]int)
	for _, t := range domain.OrderTransitions {
		k := [2]string{string(t.Event), string(t.Dst)}
		if i, ok := index[k]; ok {
			events[i].Src = append(events[i].Src, string(t.Src))
			continue
		}
		index[k] = len(events)
		events = append(events, loopfsm.EventDesc{
			Name: string(t.Event),
			Src:  []string{string(t.Src)},
			Dst:  string(t.Dst),
		})
	}
	return &Validator{events: events}
}

func (v *Validator) machine(current domain.OrderStatus) *loopfsm.FSM {
	return loopfsm.NewFSM(string(current), v.events, nil)
}

// Apply fires event from current and returns the destination status, or a
// *domain.TransitionError when the lifecycle does not allow it.
func (v *Validator) Apply(ctx context.Context, current domain.OrderStatus, event domain.OrderEvent) (domain.OrderStatus, error) {
	m := v.machine(current)
	err := m.Event(ctx, string(event))

	var invalid loopfsm.InvalidEventError
	var unknown loopfsm.UnknownEventError
	switch {
	case err == nil:
		return domain.OrderStatus(m.Current()), nil
	case errors.As(err, &invalid), errors.As(err, &unknown):
		return "", &domain.TransitionError{Event: event, Current: current}
	default:
		return "", err
	}
}

// Available lists the events that may fire from current, sorted by name.
// Terminal statuses yield an empty slice.
func (v *Validator) Available(current domain.OrderStatus) []domain.OrderEvent {
	names := v.machine(current).AvailableTransitions()
	slices.Sort(names)
	out := make([]domain.OrderEvent, len(names))
	for i, name := range names {
		out[i] = domain.OrderEvent(name)
	}
	return out
}

package app_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

func TestOrderLifecycle_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	order, err := env.orders.Create(ctx, acme.tenant, acme.dispatcher, acme.orderInput(5000, at(9, 0), at(12, 0)))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, order.Status)
	assert.Equal(t, acme.dispatcher.UserID, order.CreatedBy)

	assert.Equal(t, []domain.OrderEvent{domain.EventCancel, domain.EventSubmit}, env.orders.NextEvents(order))

	order, err = env.orders.Submit(ctx, acme.tenant, acme.dispatcher, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, order.Status)

	order, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, order.ID, acme.truck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, order.Status)
	require.NotNil(t, order.TruckID)
	assert.Equal(t, acme.truck.ID, *order.TruckID)

	order, err = env.orders.Dispatch(ctx, acme.tenant, acme.dispatcher, order.ID, acme.driver.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnRoute, order.Status)

	order, err = env.orders.Deliver(ctx, acme.tenant, acme.driver, order.ID, 5200)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, order.Status)
	require.NotNil(t, order.DeliveredLiters)
	assert.Equal(t, 5200, *order.DeliveredLiters)
	assert.NotNil(t, order.DeliveredAt)
	assert.Empty(t, env.orders.NextEvents(order))

	stored, err := env.orders.Get(ctx, acme.tenant, acme.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, stored.Status)
	assert.Equal(t, 5200, *stored.DeliveredLiters)

	var actions []string
	for _, e := range env.recorder.Entries() {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"created", "submitted", "scheduled", "en_route", "delivered"}, actions)
}

func TestSchedule_OverlappingWindowsConflict(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	first := env.submitted(t, acme, 5000, at(10, 0), at(12, 0))
	second := env.submitted(t, acme, 5000, at(11, 0), at(13, 0))
	touching := env.submitted(t, acme, 5000, at(12, 0), at(14, 0))

	_, err := env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, first.ID, acme.truck.ID)
	require.NoError(t, err)

	_, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, second.ID, acme.truck.ID)
	domainErr := asDomainError(t, err)
	assert.Contains(t, domainErr.Reason, first.ID)

	got, err := env.orders.Get(ctx, acme.tenant, acme.admin, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
	assert.Nil(t, got.TruckID)

	_, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, touching.ID, acme.truck.ID)
	assert.NoError(t, err, "touching windows must not conflict")
}

func TestSchedule_ConcurrentCallsOnOneTruck(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)

	a := env.submitted(t, acme, 1000, at(10, 0), at(12, 0))
	b := env.submitted(t, acme, 1000, at(11, 0), at(13, 0))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.orders.Schedule(context.Background(), acme.tenant, acme.dispatcher, id, acme.truck.ID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		asDomainError(t, err)
	}
	assert.Equal(t, 1, succeeded, "exactly one schedule must win")
}

func TestSchedule_Guards(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 3000)
	ctx := context.Background()

	t.Run("capacity exceeded", func(t *testing.T) {
		o := env.submitted(t, acme, 3001, at(6, 0), at(7, 0))
		_, err := env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, o.ID, acme.truck.ID)
		assert.Contains(t, asDomainError(t, err).Reason, "3001")
	})

	t.Run("capacity exact", func(t *testing.T) {
		o := env.submitted(t, acme, 3000, at(6, 0), at(7, 0))
		_, err := env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, o.ID, acme.truck.ID)
		assert.NoError(t, err)
	})

	t.Run("inactive truck", func(t *testing.T) {
		truck, err := env.trucks.ToggleActive(ctx, acme.tenant, acme.admin, acme.truck.ID)
		require.NoError(t, err)
		require.False(t, truck.Active)
		t.Cleanup(func() { env.trucks.ToggleActive(ctx, acme.tenant, acme.admin, acme.truck.ID) })

		o := env.submitted(t, acme, 500, at(20, 0), at(21, 0))
		_, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, o.ID, acme.truck.ID)
		assert.Contains(t, asDomainError(t, err).Reason, "inactive")
	})

	t.Run("unknown truck", func(t *testing.T) {
		o := env.submitted(t, acme, 500, at(20, 0), at(21, 0))
		_, err := env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, o.ID, "missing")
		var notFound *domain.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("wrong state", func(t *testing.T) {
		o, err := env.orders.Create(ctx, acme.tenant, acme.dispatcher, acme.orderInput(500, at(20, 0), at(21, 0)))
		require.NoError(t, err)
		_, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, o.ID, acme.truck.ID)
		var transitionErr *domain.TransitionError
		assert.ErrorAs(t, err, &transitionErr)
		asDomainError(t, err)
	})
}

func TestSubmit_RequiresWindow(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	o, err := env.orders.Create(ctx, acme.tenant, acme.dispatcher, app.CreateOrderInput{
		ClientID:   acme.client.ID,
		LocationID: acme.location.ID,
		FuelLiters: 500,
	})
	require.NoError(t, err)

	_, err = env.orders.Submit(ctx, acme.tenant, acme.dispatcher, o.ID)
	asDomainError(t, err)

	o, err = env.orders.Update(ctx, acme.tenant, acme.dispatcher, o.ID, domain.OrderPatch{WindowStart: ptr(at(9, 0))})
	require.NoError(t, err)
	_, err = env.orders.Submit(ctx, acme.tenant, acme.dispatcher, o.ID)
	asDomainError(t, err)

	_, err = env.orders.Update(ctx, acme.tenant, acme.dispatcher, o.ID, domain.OrderPatch{WindowEnd: ptr(at(10, 0))})
	require.NoError(t, err)
	o, err = env.orders.Submit(ctx, acme.tenant, acme.dispatcher, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, o.Status)
}

func TestDeliver_Tolerance(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	tests := []struct {
		name      string
		delivered int
		wantErr   bool
	}{
		{"exact", 1000, false},
		{"ten percent over", 1100, false},
		{"one liter too many", 1101, true},
		{"zero", 0, true},
		{"negative", -5, true},
		{"wraps when scaled", math.MaxInt/10 + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := env.enRoute(t, acme, 1000)
			got, err := env.orders.Deliver(ctx, acme.tenant, acme.driver, o.ID, tt.delivered)
			if tt.wantErr {
				asDomainError(t, err)
				stored, getErr := env.orders.Get(ctx, acme.tenant, acme.admin, o.ID)
				require.NoError(t, getErr)
				assert.Equal(t, domain.StatusEnRoute, stored.Status)
				assert.Nil(t, stored.DeliveredLiters)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.StatusDelivered, got.Status)
			}
			// Free the truck for the next case.
			env.orders.Cancel(ctx, acme.tenant, acme.admin, o.ID, nil)
		})
	}
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	draft, err := env.orders.Create(ctx, acme.tenant, acme.dispatcher, acme.orderInput(500, at(6, 0), at(7, 0)))
	require.NoError(t, err)
	submitted := env.submitted(t, acme, 500, at(6, 0), at(7, 0))
	scheduled := env.submitted(t, acme, 500, at(6, 0), at(7, 0))
	_, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, scheduled.ID, acme.truck.ID)
	require.NoError(t, err)

	for _, id := range []string{draft.ID, submitted.ID, scheduled.ID} {
		o, err := env.orders.Cancel(ctx, acme.tenant, acme.dispatcher, id, ptr("customer request"))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, o.Status)
		assert.Equal(t, "customer request", *o.CancellationReason)
	}

	enRoute := env.enRoute(t, acme, 500)
	o, err := env.orders.Cancel(ctx, acme.tenant, acme.dispatcher, enRoute.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Nil(t, o.CancellationReason)

	_, err = env.orders.Cancel(ctx, acme.tenant, acme.dispatcher, enRoute.ID, nil)
	asDomainError(t, err)

	delivered := env.enRoute(t, acme, 500)
	_, err = env.orders.Deliver(ctx, acme.tenant, acme.admin, delivered.ID, 500)
	require.NoError(t, err)
	_, err = env.orders.Cancel(ctx, acme.tenant, acme.dispatcher, delivered.ID, nil)
	asDomainError(t, err)

	_, err = env.orders.Cancel(ctx, acme.tenant, acme.dispatcher, draft.ID, ptr(strings.Repeat("x", domain.MaxCancellationReason+1)))
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateAndDelete_OnlyDraft(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	draft, err := env.orders.Create(ctx, acme.tenant, acme.dispatcher, acme.orderInput(500, at(6, 0), at(7, 0)))
	require.NoError(t, err)

	updated, err := env.orders.Update(ctx, acme.tenant, acme.dispatcher, draft.ID, domain.OrderPatch{FuelLiters: ptr(800)})
	require.NoError(t, err)
	assert.Equal(t, 800, updated.FuelLiters)

	entries := env.recorder.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, domain.ActionUpdated, last.Action)
	assert.Equal(t, map[string]any{"fuel_liters": 500}, last.OldValues)
	assert.Equal(t, map[string]any{"fuel_liters": 800}, last.NewValues)

	_, err = env.orders.Update(ctx, acme.tenant, acme.dispatcher, draft.ID, domain.OrderPatch{FuelLiters: ptr(99)})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "fuel_liters", validationErr.Field)

	recorded := len(env.recorder.Entries())
	unchanged, err := env.orders.Update(ctx, acme.tenant, acme.dispatcher, draft.ID, domain.OrderPatch{})
	require.NoError(t, err)
	assert.Equal(t, 800, unchanged.FuelLiters)
	assert.Len(t, env.recorder.Entries(), recorded, "empty patch must not be audited")

	submitted := env.submitted(t, acme, 500, at(6, 0), at(7, 0))
	_, err = env.orders.Update(ctx, acme.tenant, acme.dispatcher, submitted.ID, domain.OrderPatch{FuelLiters: ptr(800)})
	asDomainError(t, err)
	_, err = env.orders.Update(ctx, acme.tenant, acme.dispatcher, submitted.ID, domain.OrderPatch{})
	asDomainError(t, err)
	err = env.orders.Delete(ctx, acme.tenant, acme.dispatcher, submitted.ID)
	asDomainError(t, err)

	require.NoError(t, env.orders.Delete(ctx, acme.tenant, acme.dispatcher, draft.ID))
	_, err = env.orders.Get(ctx, acme.tenant, acme.admin, draft.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	entries = env.recorder.Entries()
	last = entries[len(entries)-1]
	assert.Equal(t, domain.ActionDeleted, last.Action)
	assert.Equal(t, draft.ID, last.OldValues["id"])
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	other, err := env.clients.Create(ctx, acme.tenant, acme.admin, app.CreateClientInput{Name: "Other"})
	require.NoError(t, err)
	env.recorder.Reset()

	tests := []struct {
		name  string
		in    func() app.CreateOrderInput
		field string
	}{
		{"fuel below minimum", func() app.CreateOrderInput { return acme.orderInput(99, at(9, 0), at(10, 0)) }, "fuel_liters"},
		{"end before start", func() app.CreateOrderInput { return acme.orderInput(500, at(10, 0), at(9, 0)) }, "window_end"},
		{"end equals start", func() app.CreateOrderInput { return acme.orderInput(500, at(10, 0), at(10, 0)) }, "window_end"},
		{"location of another client", func() app.CreateOrderInput {
			in := acme.orderInput(500, at(9, 0), at(10, 0))
			in.ClientID = other.ID
			return in
		}, "location_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.Create(ctx, acme.tenant, acme.dispatcher, tt.in())
			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	assert.Empty(t, env.recorder.Entries(), "failed mutations must not be audited")
}

func TestOrders_CrossTenantIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	globex := env.seed(t, "globex", 20000)
	ctx := context.Background()

	order := env.submitted(t, acme, 500, at(9, 0), at(10, 0))
	env.recorder.Reset()

	var notFound *domain.NotFoundError

	_, err := env.orders.Get(ctx, globex.tenant, globex.admin, order.ID)
	assert.ErrorAs(t, err, &notFound)
	_, err = env.orders.Schedule(ctx, globex.tenant, globex.dispatcher, order.ID, globex.truck.ID)
	assert.ErrorAs(t, err, &notFound)
	_, err = env.orders.Cancel(ctx, globex.tenant, globex.dispatcher, order.ID, nil)
	assert.ErrorAs(t, err, &notFound)

	// Referencing another tenant's client, location or truck is a lookup failure.
	_, err = env.orders.Create(ctx, globex.tenant, globex.dispatcher, acme.orderInput(500, at(9, 0), at(10, 0)))
	assert.ErrorAs(t, err, &notFound)
	_, err = env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, order.ID, globex.truck.ID)
	assert.ErrorAs(t, err, &notFound)

	scheduled, err := env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, order.ID, acme.truck.ID)
	require.NoError(t, err)
	_, err = env.orders.Dispatch(ctx, acme.tenant, acme.dispatcher, scheduled.ID, globex.driver.UserID)
	assert.ErrorAs(t, err, &notFound)

	list, err := env.orders.List(ctx, globex.tenant, globex.admin, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Only the successful schedule was audited.
	assert.Len(t, env.recorder.Entries(), 1)
}

func TestOrders_Authorization(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	globex := env.seed(t, "globex", 20000)
	ctx := context.Background()

	var authErr *domain.AuthorizationError

	_, err := env.orders.Create(ctx, acme.tenant, acme.clientRep, acme.orderInput(500, at(9, 0), at(10, 0)))
	assert.ErrorAs(t, err, &authErr)
	_, err = env.orders.Create(ctx, acme.tenant, acme.driver, acme.orderInput(500, at(9, 0), at(10, 0)))
	assert.ErrorAs(t, err, &authErr)

	// An actor of another tenant is refused even with a permitted role.
	_, err = env.orders.Create(ctx, acme.tenant, globex.admin, acme.orderInput(500, at(9, 0), at(10, 0)))
	assert.ErrorAs(t, err, &authErr)

	// A missing order is NotFound even for an unauthorized actor.
	_, err = env.orders.Submit(ctx, acme.tenant, acme.clientRep, "missing")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	order := env.enRoute(t, acme, 500)

	otherDriver, err := env.tenants.CreateUser(ctx, acme.tenant, app.CreateUserInput{Name: "Other Driver", Email: "driver2@acme.test", Role: domain.RoleDriver})
	require.NoError(t, err)
	otherActor := domain.Actor{UserID: otherDriver.ID, TenantID: otherDriver.TenantID, Role: domain.RoleDriver}

	_, err = env.orders.Get(ctx, acme.tenant, otherActor, order.ID)
	assert.ErrorAs(t, err, &authErr)
	_, err = env.orders.Deliver(ctx, acme.tenant, otherActor, order.ID, 500)
	assert.ErrorAs(t, err, &authErr)
	_, err = env.orders.Deliver(ctx, acme.tenant, acme.dispatcher, order.ID, 500)
	assert.ErrorAs(t, err, &authErr)

	mine, err := env.orders.List(ctx, acme.tenant, otherActor, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine, "drivers only list their own orders")

	delivered, err := env.orders.Deliver(ctx, acme.tenant, acme.driver, order.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, delivered.Status)
}

func TestDispatch_RequiresDriverRole(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	o := env.submitted(t, acme, 500, at(9, 0), at(10, 0))
	o, err := env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, o.ID, acme.truck.ID)
	require.NoError(t, err)

	_, err = env.orders.Dispatch(ctx, acme.tenant, acme.dispatcher, o.ID, acme.dispatcher.UserID)
	assert.Contains(t, asDomainError(t, err).Reason, "not a driver")
}

func TestAudit_ExactlyOncePerMutation(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	o := env.submitted(t, acme, 500, at(9, 0), at(10, 0))
	entries := env.recorder.Entries()
	require.Len(t, entries, 2)

	submit := entries[1]
	assert.Equal(t, string(acme.tenant), submit.TenantID)
	assert.Equal(t, acme.dispatcher.UserID, submit.UserID)
	assert.Equal(t, domain.SubjectOrder, submit.SubjectType)
	assert.Equal(t, o.ID, submit.SubjectID)
	assert.Equal(t, "submitted", submit.Action)
	assert.Equal(t, map[string]any{"status": "DRAFT"}, submit.OldValues)
	assert.Equal(t, map[string]any{"status": "SUBMITTED"}, submit.NewValues)
	assert.Equal(t, "Order #"+o.ID+" transitioned from DRAFT to SUBMITTED", submit.Description)
	assert.Equal(t, "127.0.0.1", submit.IPAddress)

	_, err := env.orders.Submit(ctx, acme.tenant, acme.dispatcher, o.ID)
	asDomainError(t, err)
	assert.Len(t, env.recorder.Entries(), 2, "failed transition must not be audited")

	scheduled, err := env.orders.Schedule(ctx, acme.tenant, acme.dispatcher, o.ID, acme.truck.ID)
	require.NoError(t, err)
	entries = env.recorder.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, acme.truck.ID, entries[2].NewValues["truck_id"])
	assert.Equal(t, acme.truck.PlateNo, entries[2].NewValues["truck_plate"])
	assert.Equal(t, domain.StatusScheduled, scheduled.Status)
}

func TestAudit_RecorderFailureDoesNotFailMutation(t *testing.T) {
	env := newTestEnv(t)
	acme := env.seed(t, "acme", 20000)
	ctx := context.Background()

	env.recorder.err = errors.New("queue down")

	o, err := env.orders.Create(ctx, acme.tenant, acme.dispatcher, acme.orderInput(500, at(9, 0), at(10, 0)))
	require.NoError(t, err)

	stored, err := env.orders.Get(ctx, acme.tenant, acme.admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/fuelops/internal/domain"
)

const tracerName = "github.com/neomorfeo/fuelops/internal/adapter/otel"

// TracingStore wraps a domain.TxStore with OpenTelemetry tracing. Transactions,
// tenant lookups and order persistence get their own spans; the remaining
// repositories are covered by the otelsql statement spans.
type TracingStore struct {
	domain.TxStore
	tracer trace.Tracer
}

// Compile-time check: TracingStore implements domain.TxStore.
var _ domain.TxStore = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.TxStore) *TracingStore {
	return &TracingStore{
		TxStore: next,
		tracer:  otel.Tracer(tracerName),
	}
}

func (s *TracingStore) Tenants() domain.TenantRepository {
	return &TracingTenantRepository{next: s.TxStore.Tenants(), tracer: s.tracer}
}

func (s *TracingStore) Orders() domain.OrderRepository {
	return &TracingOrderRepository{next: s.TxStore.Orders(), tracer: s.tracer}
}

func (s *TracingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	ctx, span := s.tracer.Start(ctx, "TxStore.WithinTx")
	defer span.End()

	err := s.TxStore.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		return fn(ctx, &tracingTx{Store: tx, tracer: s.tracer})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// tracingTx traces the order repository of a store bound to a transaction.
type tracingTx struct {
	domain.Store
	tracer trace.Tracer
}

func (s *tracingTx) Orders() domain.OrderRepository {
	return &TracingOrderRepository{next: s.Store.Orders(), tracer: s.tracer}
}

// TracingTenantRepository wraps a domain.TenantRepository with OpenTelemetry tracing.
type TracingTenantRepository struct {
	next   domain.TenantRepository
	tracer trace.Tracer
}

// Compile-time check: TracingTenantRepository implements domain.TenantRepository.
var _ domain.TenantRepository = (*TracingTenantRepository)(nil)

func (r *TracingTenantRepository) Create(ctx context.Context, tenant domain.Tenant) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Create",
		trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.String("tenant.slug", tenant.Slug),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, tenant)
	end(span, err)
	return err
}

func (r *TracingTenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetByID",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer span.End()

	tenant, err := r.next.GetByID(ctx, id)
	end(span, err)
	return tenant, err
}

func (r *TracingTenantRepository) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetBySlug",
		trace.WithAttributes(attribute.String("tenant.slug", slug)),
	)
	defer span.End()

	tenant, err := r.next.GetBySlug(ctx, slug)
	end(span, err)
	return tenant, err
}

func (r *TracingTenantRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	tenants, err := r.next.List(ctx, filter)
	end(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(tenants)))
	}
	return tenants, err
}

// TracingOrderRepository wraps a domain.OrderRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingOrderRepository struct {
	next   domain.OrderRepository
	tracer trace.Tracer
}

// Compile-time check: TracingOrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*TracingOrderRepository)(nil)

func (r *TracingOrderRepository) Create(ctx context.Context, tenant domain.TenantID, order domain.Order) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Create",
		trace.WithAttributes(
			attribute.String("tenant.id", string(tenant)),
			attribute.String("order.client_id", order.ClientID),
		),
	)
	defer span.End()

	created, err := r.next.Create(ctx, tenant, order)
	end(span, err)
	if err == nil {
		span.SetAttributes(attribute.String("order.id", created.ID))
	}
	return created, err
}

func (r *TracingOrderRepository) Get(ctx context.Context, tenant domain.TenantID, id string) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Get",
		trace.WithAttributes(
			attribute.String("tenant.id", string(tenant)),
			attribute.String("order.id", id),
		),
	)
	defer span.End()

	order, err := r.next.Get(ctx, tenant, id)
	end(span, err)
	if err == nil {
		span.SetAttributes(attribute.String("order.status", string(order.Status)))
	}
	return order, err
}

func (r *TracingOrderRepository) List(ctx context.Context, tenant domain.TenantID, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.List",
		trace.WithAttributes(
			attribute.String("tenant.id", string(tenant)),
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		span.SetAttributes(attribute.StringSlice("filter.status", statuses))
	}

	orders, err := r.next.List(ctx, tenant, filter)
	end(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(orders)))
	}
	return orders, err
}

func (r *TracingOrderRepository) Update(ctx context.Context, tenant domain.TenantID, order domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Update",
		trace.WithAttributes(
			attribute.String("tenant.id", string(tenant)),
			attribute.String("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, tenant, order)
	end(span, err)
	return err
}

func (r *TracingOrderRepository) Delete(ctx context.Context, tenant domain.TenantID, id string) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Delete",
		trace.WithAttributes(
			attribute.String("tenant.id", string(tenant)),
			attribute.String("order.id", id),
		),
	)
	defer span.End()

	err := r.next.Delete(ctx, tenant, id)
	end(span, err)
	return err
}

func (r *TracingOrderRepository) FindActiveOnTruck(ctx context.Context, tenant domain.TenantID, truckID string, w domain.Window, excludeID string) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.FindActiveOnTruck",
		trace.WithAttributes(
			attribute.String("tenant.id", string(tenant)),
			attribute.String("truck.id", truckID),
			attribute.String("window.start", w.Start.UTC().Format("2006-01-02T15:04:05Z")),
			attribute.String("window.end", w.End.UTC().Format("2006-01-02T15:04:05Z")),
		),
	)
	defer span.End()

	orders, err := r.next.FindActiveOnTruck(ctx, tenant, truckID, w, excludeID)
	end(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(orders)))
	}
	return orders, err
}

// end marks span as failed when err is set.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

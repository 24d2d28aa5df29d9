package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/fuelops/internal/adapter/otel"
	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
	"github.com/neomorfeo/fuelops/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

func newTracingStore(t *testing.T) (*adapter.TracingStore, domain.Tenant) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := adapter.NewTracingStore(db)
	tenant := domain.NewTenant("t-1", "Acme Fuel", "acme")
	if err := store.Tenants().Create(context.Background(), tenant); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return store, tenant
}

func findSpan(t *testing.T, spans tracetest.SpanStubs, name string) tracetest.SpanStub {
	t.Helper()
	for _, s := range spans {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("span %q not found", name)
	return tracetest.SpanStub{}
}

func assertAttribute(t *testing.T, attrs []attribute.KeyValue, key string, want attribute.Value) {
	t.Helper()
	for _, a := range attrs {
		if string(a.Key) == key {
			if a.Value != want {
				t.Errorf("attribute %s = %v, want %v", key, a.Value.Emit(), want.Emit())
			}
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}

// --- Tests ---

func TestTracingStore_TenantCreate(t *testing.T) {
	exporter := setupTestTracer(t)
	newTracingStore(t)

	span := findSpan(t, exporter.GetSpans(), "TenantRepository.Create")
	assertAttribute(t, span.Attributes, "tenant.id", attribute.StringValue("t-1"))
	assertAttribute(t, span.Attributes, "tenant.slug", attribute.StringValue("acme"))
	if span.Status.Code == codes.Error {
		t.Errorf("unexpected error status: %s", span.Status.Description)
	}
}

func TestTracingStore_TenantGetBySlug_NotFound(t *testing.T) {
	exporter := setupTestTracer(t)
	store, _ := newTracingStore(t)

	_, err := store.Tenants().GetBySlug(context.Background(), "missing")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("err = %v, want ErrTenantNotFound", err)
	}

	span := findSpan(t, exporter.GetSpans(), "TenantRepository.GetBySlug")
	if span.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status.Code)
	}
	if len(span.Events) == 0 {
		t.Error("expected an exception event")
	}
}

func TestTracingStore_OrderGet_NotFound(t *testing.T) {
	exporter := setupTestTracer(t)
	store, tenant := newTracingStore(t)

	_, err := store.Orders().Get(context.Background(), tenant.Scope(), "nope")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}

	span := findSpan(t, exporter.GetSpans(), "OrderRepository.Get")
	assertAttribute(t, span.Attributes, "tenant.id", attribute.StringValue("t-1"))
	assertAttribute(t, span.Attributes, "order.id", attribute.StringValue("nope"))
	if span.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status.Code)
	}
}

func TestTracingStore_OrderList(t *testing.T) {
	exporter := setupTestTracer(t)
	store, tenant := newTracingStore(t)

	filter := domain.OrderFilter{
		Statuses: []domain.OrderStatus{domain.StatusDraft, domain.StatusScheduled},
		Limit:    10,
	}
	orders, err := store.Orders().List(context.Background(), tenant.Scope(), filter)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("len = %d, want 0", len(orders))
	}

	span := findSpan(t, exporter.GetSpans(), "OrderRepository.List")
	assertAttribute(t, span.Attributes, "filter.limit", attribute.IntValue(10))
	assertAttribute(t, span.Attributes, "filter.status", attribute.StringSliceValue([]string{"DRAFT", "SCHEDULED"}))
	assertAttribute(t, span.Attributes, "result.count", attribute.IntValue(0))
}

func TestTracingStore_WithinTx_TracesTxOrders(t *testing.T) {
	exporter := setupTestTracer(t)
	store, tenant := newTracingStore(t)

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	w := domain.Window{Start: start, End: start.Add(2 * time.Hour)}
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Store) error {
		_, err := tx.Orders().FindActiveOnTruck(ctx, tenant.Scope(), "truck-1", w, "")
		return err
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	spans := exporter.GetSpans()
	txSpan := findSpan(t, spans, "TxStore.WithinTx")
	find := findSpan(t, spans, "OrderRepository.FindActiveOnTruck")
	if find.Parent.SpanID() != txSpan.SpanContext.SpanID() {
		t.Error("FindActiveOnTruck span is not a child of the transaction span")
	}
	assertAttribute(t, find.Attributes, "truck.id", attribute.StringValue("truck-1"))
	assertAttribute(t, find.Attributes, "window.start", attribute.StringValue("2026-03-02T08:00:00Z"))
}

func TestTracingStore_WithinTx_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	store, _ := newTracingStore(t)

	boom := errors.New("boom")
	err := store.WithinTx(context.Background(), func(context.Context, domain.Store) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	span := findSpan(t, exporter.GetSpans(), "TxStore.WithinTx")
	if span.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status.Code)
	}
}

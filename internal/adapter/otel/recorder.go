package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// TracingRecorder wraps a domain.AuditRecorder with OpenTelemetry tracing and
// counts recorded entries by action and outcome.
type TracingRecorder struct {
	next    domain.AuditRecorder
	tracer  trace.Tracer
	records metric.Int64Counter
}

// Compile-time check: TracingRecorder implements domain.AuditRecorder.
var _ domain.AuditRecorder = (*TracingRecorder)(nil)

// NewTracingRecorder creates a tracing decorator around the given recorder.
func NewTracingRecorder(next domain.AuditRecorder) (*TracingRecorder, error) {
	records, err := otel.Meter(tracerName).Int64Counter("fuelops.audit.records",
		metric.WithDescription("Audit entries handed to the recorder."),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &TracingRecorder{
		next:    next,
		tracer:  otel.Tracer(tracerName),
		records: records,
	}, nil
}

func (r *TracingRecorder) Record(ctx context.Context, entry domain.AuditEntry) error {
	ctx, span := r.tracer.Start(ctx, "AuditRecorder.Record",
		trace.WithAttributes(
			attribute.String("tenant.id", entry.TenantID),
			attribute.String("audit.subject_type", entry.SubjectType),
			attribute.String("audit.subject_id", entry.SubjectID),
			attribute.String("audit.action", entry.Action),
		),
	)
	defer span.End()

	outcome := "ok"
	err := r.next.Record(ctx, entry)
	if err != nil {
		end(span, err)
		outcome = "error"
	}

	r.records.Add(ctx, 1, metric.WithAttributes(
		attribute.String("audit.action", entry.Action),
		attribute.String("audit.subject_type", entry.SubjectType),
		attribute.String("outcome", outcome),
	))
	return err
}

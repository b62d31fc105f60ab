package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RoleMetrics counts role administration operations.
type RoleMetrics struct {
	Operations metric.Int64Counter
	Duration   metric.Float64Histogram
}

// NewRoleMetrics creates the instruments on the global meter provider.
func NewRoleMetrics() (*RoleMetrics, error) {
	meter := otel.Meter("timetableapi/roles")

	ops, err := meter.Int64Counter(
		"roles.operation.count",
		metric.WithDescription("Role administration operations by operation and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"roles.operation.duration",
		metric.WithDescription("Role administration operation latency"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	if err != nil {
		return nil, err
	}

	return &RoleMetrics{Operations: ops, Duration: duration}, nil
}

// Record counts one operation. outcome is "ok" or an error kind. A nil
// receiver records nothing.
func (m *RoleMetrics) Record(ctx context.Context, operation, outcome string, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("roles.operation", operation),
		attribute.String("roles.outcome", outcome),
	)
	m.Operations.Add(ctx, 1, attrs)
	m.Duration.Record(ctx, durationMs, attrs)
}

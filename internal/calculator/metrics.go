package calculator

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"go-chi-calculator/internal/observability"
)

// Metric instruments. They are no-ops until InitMetrics runs.
var (
	inputCounter metric.Int64Counter     = noop.Int64Counter{}
	evalCounter  metric.Int64Counter     = noop.Int64Counter{}
	evalDuration metric.Float64Histogram = noop.Float64Histogram{}
	errorCounter metric.Int64Counter     = noop.Int64Counter{}
	resultGauge  metric.Float64Gauge     = noop.Float64Gauge{}
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	inputCounter, err = meter.Int64Counter("calculator.inputs.total",
		metric.WithDescription("Total number of calculator inputs handled"),
		metric.WithUnit("{input}"),
	)
	if err != nil {
		return fmt.Errorf("creating input counter: %w", err)
	}

	evalCounter, err = meter.Int64Counter("calculator.evaluations.total",
		metric.WithDescription("Total number of committed evaluations by outcome"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return fmt.Errorf("creating evaluation counter: %w", err)
	}

	evalDuration, err = meter.Float64Histogram("calculator.evaluation.duration",
		metric.WithDescription("Duration of committed evaluations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating evaluation histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator request errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last successful evaluation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}

// RegisterSessionGauge exports the number of live sessions to Prometheus.
func RegisterSessionGauge(reg prometheus.Registerer, sessions *Sessions) error {
	return observability.RegisterGaugeFunc(reg,
		"calculator_active_sessions",
		"Number of live calculator sessions",
		func() float64 { return float64(sessions.Len()) },
	)
}

// outcomeLabel is the evaluation outcome attribute for err.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrEmptyExpression):
		return "empty"
	case errors.Is(err, ErrNonFinite):
		return "non_finite"
	default:
		return "malformed"
	}
}

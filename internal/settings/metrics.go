package settings

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// tracer is the settings domain's OpenTelemetry tracer.
var tracer = otel.Tracer("settings")

// errorCounter is a no-op until InitMetrics runs.
var errorCounter metric.Int64Counter = noop.Int64Counter{}

// InitMetrics registers the settings error counter. Call this once at startup
// (after observability.InitTelemetry).
func InitMetrics() error {
	return initMetrics(otel.Meter("settings"))
}

func initMetrics(meter metric.Meter) error {
	var err error

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator request errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}
	return nil
}

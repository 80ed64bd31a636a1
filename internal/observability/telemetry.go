package observability

import (
	"context"
	"errors"
)

// InitTelemetry starts the OTLP trace, metric and log pipelines. When
// enabled is false it leaves the global no-op providers in place. The
// returned shutdown flushes every pipeline that was started.
func InitTelemetry(ctx context.Context, enabled bool) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	for _, start := range []func(context.Context) (func(context.Context) error, error){
		InitTracing,
		InitMetrics,
		InitLogging,
	} {
		stop, err := start(ctx)
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, stop)
	}

	return shutdown, nil
}

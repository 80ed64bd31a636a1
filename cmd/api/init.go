package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/settings"
)

// initMetrics creates the application-specific metric instruments. Add new
// domain InitMetrics calls here as the project grows. It runs after
// observability.InitTelemetry so the instruments bind to the real provider.
func initMetrics(sessions *calculator.Sessions) error {
	if err := calculator.InitMetrics(); err != nil {
		return err
	}
	if err := settings.InitMetrics(); err != nil {
		return err
	}

	return calculator.RegisterSessionGauge(prometheus.DefaultRegisterer, sessions)
}

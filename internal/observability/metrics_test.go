package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterGaugeFuncIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()

	if err := RegisterGaugeFunc(reg, "calculator_test_gauge", "test gauge", func() float64 { return 3 }); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := RegisterGaugeFunc(reg, "calculator_test_gauge", "test gauge", func() float64 { return 0 }); err != nil {
		t.Fatalf("second registration: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering: %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("expected 1 metric family, got %d", len(families))
	}

	metrics := families[0].GetMetric()
	if len(metrics) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(metrics))
	}
	if got := metrics[0].GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected gauge value 3, got %v", got)
	}
}

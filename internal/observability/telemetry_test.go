package observability

import (
	"context"
	"testing"
)

func TestInitTelemetryDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}

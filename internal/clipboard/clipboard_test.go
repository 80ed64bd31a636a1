package clipboard

import "testing"

func TestNewSelectsImplementation(t *testing.T) {
	if _, ok := New(false).(Nop); !ok {
		t.Fatalf("expected Nop when disabled, got %T", New(false))
	}
	if _, ok := New(true).(System); !ok {
		t.Fatalf("expected System when enabled, got %T", New(true))
	}
}

func TestNopNeverFails(t *testing.T) {
	if err := (Nop{}).WriteAll("1,234"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

package calculator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go-chi-calculator/internal/settings"
)

type recordedEntry struct {
	expression string
	result     string
}

type fakeHistory struct {
	entries []recordedEntry
}

func (h *fakeHistory) Record(_ context.Context, expression, result string) {
	h.entries = append(h.entries, recordedEntry{expression, result})
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

// mutableSettings lets a test change settings between inputs.
type mutableSettings struct {
	s settings.Settings
}

func (m *mutableSettings) Snapshot() settings.Settings { return m.s }

func press(t *testing.T, c *Controller, inputs ...string) Outcome {
	t.Helper()
	var out Outcome
	for _, in := range inputs {
		out = c.HandleInput(context.Background(), key(t, in))
	}
	return out
}

func TestControllerChainsFromResult(t *testing.T) {
	h := &fakeHistory{}
	c := NewController(nil, WithHistory(h))

	out := press(t, c, "5", "+", "3", "=")
	if out.Committed == nil || !out.Committed.OK() || out.Committed.Value != 8 {
		t.Fatalf("expected committed 8, got %+v", out.Committed)
	}
	if out.Display != "8" || out.Phase != PhaseResult {
		t.Fatalf("unexpected snapshot after first commit: %+v", out.Snapshot)
	}
	if got := values(out.Parts); !reflect.DeepEqual(got, []string{"8"}) {
		t.Fatalf("expected seeded result part, got %q", got)
	}

	out = press(t, c, "+", "2")
	if out.Phase != PhaseAccumulating || out.Expression != "8+2" {
		t.Fatalf("expected chained expression 8+2, got %+v", out.Snapshot)
	}

	out = press(t, c, "=")
	if out.Display != "10" {
		t.Fatalf("expected display 10, got %q", out.Display)
	}

	want := []recordedEntry{{"5+3", "8"}, {"8+2", "10"}}
	if !reflect.DeepEqual(h.entries, want) {
		t.Fatalf("expected history %+v, got %+v", want, h.entries)
	}
}

func TestControllerDigitAfterResultStartsFresh(t *testing.T) {
	c := NewController(nil)
	press(t, c, "5", "+", "3", "=")

	out := press(t, c, "2")
	if got := values(out.Parts); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("expected fresh expression, got %q", got)
	}

	press(t, c, "=")
	out = press(t, c, ".")
	if got := values(out.Parts); !reflect.DeepEqual(got, []string{"0."}) {
		t.Fatalf("expected fresh decimal, got %q", got)
	}
}

func TestControllerEditsSeededResult(t *testing.T) {
	c := NewController(nil)
	press(t, c, "5", "+", "3", "=")

	out := press(t, c, "+/-")
	if out.Display != "-8" || out.Phase != PhaseAccumulating {
		t.Fatalf("expected -8 while accumulating, got %+v", out.Snapshot)
	}

	press(t, c, "+/-", "=")
	out = press(t, c, "%")
	if out.Expression != "8%" {
		t.Fatalf("expected 8%%, got %q", out.Expression)
	}

	press(t, c, "C", "9", "=")
	out = press(t, c, "←")
	if out.Phase != PhaseEmpty || out.Display != "0" {
		t.Fatalf("expected empty after erasing the result, got %+v", out.Snapshot)
	}
}

func TestControllerErrorPhase(t *testing.T) {
	h := &fakeHistory{}
	c := NewController(nil, WithHistory(h))

	out := press(t, c, "5", "÷", "0", "=")
	if out.Committed == nil || !errors.Is(out.Committed.Err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %+v", out.Committed)
	}
	if out.Display != ErrorMarker || out.Phase != PhaseError || !out.HasError {
		t.Fatalf("unexpected error snapshot: %+v", out.Snapshot)
	}
	if got := values(out.Parts); !reflect.DeepEqual(got, []string{"5", "/", "0"}) {
		t.Fatalf("expected parts kept for inspection, got %q", got)
	}
	if len(h.entries) != 0 {
		t.Fatalf("expected no history for a failed commit, got %+v", h.entries)
	}

	for _, in := range []string{"1", "+", "=", "←", "+/-"} {
		if out := press(t, c, in); out.Phase != PhaseError || out.Display != ErrorMarker {
			t.Fatalf("expected %q to be ignored in error phase, got %+v", in, out.Snapshot)
		}
	}

	out = press(t, c, "C")
	if out.Phase != PhaseEmpty || out.Display != "0" || out.HasError || len(out.Parts) != 0 {
		t.Fatalf("expected clean state after clear, got %+v", out.Snapshot)
	}
}

func TestControllerEqualsOnEmptyIsError(t *testing.T) {
	c := NewController(nil)

	out := press(t, c, "=")
	if out.Committed == nil || !errors.Is(out.Committed.Err, ErrEmptyExpression) {
		t.Fatalf("expected empty expression error, got %+v", out.Committed)
	}
	if c.Phase() != PhaseError {
		t.Fatalf("expected error phase, got %s", c.Phase())
	}
}

func TestControllerHonoursAutoSaveHistory(t *testing.T) {
	s := settings.Defaults()
	s.AutoSaveHistory = false

	h := &fakeHistory{}
	c := NewController(StaticSettings(s), WithHistory(h))
	press(t, c, "2", "×", "2", "=")

	if len(h.entries) != 0 {
		t.Fatalf("expected no history with autoSaveHistory off, got %+v", h.entries)
	}
}

func TestControllerCopiesResultWhenEnabled(t *testing.T) {
	s := settings.Defaults()
	s.AutoCopyResult = true

	cb := &fakeClipboard{}
	c := NewController(StaticSettings(s), WithClipboard(cb))
	press(t, c, "1", "2", "0", "0", "×", "2", "=")

	if cb.text != "2,400" {
		t.Fatalf("expected clipboard %q, got %q", "2,400", cb.text)
	}
}

func TestControllerLogsClipboardFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	s := settings.Defaults()
	s.AutoCopyResult = true

	cb := &fakeClipboard{err: errors.New("no display")}
	c := NewController(StaticSettings(s), WithClipboard(cb), WithLogger(zap.New(core)))

	out := press(t, c, "1", "+", "1", "=")
	if out.Display != "2" {
		t.Fatalf("expected commit to succeed, got %+v", out.Snapshot)
	}
	if logs.FilterMessage("failed to copy result").Len() != 1 {
		t.Fatalf("expected clipboard failure log, got %v", logs.All())
	}
}

func TestControllerPollsSettingsOnEveryInput(t *testing.T) {
	src := &mutableSettings{s: settings.Defaults()}
	c := NewController(src)

	out := press(t, c, "1", "÷", "3", "=")
	if out.Display != "0.33" {
		t.Fatalf("expected 0.33, got %q", out.Display)
	}

	src.s.DecimalPlaces = 4
	if got := c.Snapshot().Display; got != "0.3333" {
		t.Fatalf("expected re-rendered 0.3333, got %q", got)
	}

	src.s.DecimalPlaces = 1
	out = press(t, c, "C", "1", ".", "2", "5")
	if out.Expression != "1.2" {
		t.Fatalf("expected fraction limited to one digit, got %q", out.Expression)
	}
}

func TestControllerRoundsHalfwayResultsUp(t *testing.T) {
	c := NewController(nil)

	if out := press(t, c, "1", "÷", "8", "="); out.Display != "0.13" {
		t.Fatalf("expected 0.13, got %q", out.Display)
	}
	if out := press(t, c, "+/-", "="); out.Display != "-0.13" {
		t.Fatalf("expected -0.13, got %q", out.Display)
	}
}

func TestControllerLivePreview(t *testing.T) {
	c := NewController(nil, WithLivePreview(true))

	out := press(t, c, "5", "+")
	if out.Preview != "" {
		t.Fatalf("expected silent preview for incomplete input, got %q", out.Preview)
	}

	out = press(t, c, "3")
	if out.Preview != "8" || out.Phase != PhaseAccumulating {
		t.Fatalf("expected preview 8, got %+v", out.Snapshot)
	}

	out = press(t, c, "÷", "0")
	if out.Preview != "" || out.HasError {
		t.Fatalf("expected preview failure to stay silent, got %+v", out.Snapshot)
	}

	lazy := NewController(nil)
	if out := press(t, lazy, "5", "+", "3"); out.Preview != "" {
		t.Fatalf("expected no preview when disabled, got %q", out.Preview)
	}
}

func TestControllerOperatorPolicyOption(t *testing.T) {
	c := NewController(nil, WithOperatorPolicy(RejectOperator))
	out := press(t, c, "5", "+", "×")
	if out.Expression != "5+" {
		t.Fatalf("expected rejected operator, got %q", out.Expression)
	}
}

func TestPhaseText(t *testing.T) {
	for _, p := range []Phase{PhaseEmpty, PhaseAccumulating, PhaseResult, PhaseError} {
		b, err := p.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", p, err)
		}
		var back Phase
		if err := back.UnmarshalText(b); err != nil || back != p {
			t.Fatalf("round trip of %s gave %s, %v", p, back, err)
		}
	}

	var p Phase
	if err := p.UnmarshalText([]byte("done")); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}

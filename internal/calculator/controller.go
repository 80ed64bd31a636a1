package calculator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"go-chi-calculator/internal/clipboard"
	"go-chi-calculator/internal/settings"
)

// Phase is the session-level state of a Controller.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseAccumulating
	PhaseResult
	PhaseError
)

var phaseNames = [...]string{
	PhaseEmpty:        "empty",
	PhaseAccumulating: "accumulating",
	PhaseResult:       "result",
	PhaseError:        "error",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// HistorySink receives every successful "=" commit.
type HistorySink interface {
	Record(ctx context.Context, expression, result string)
}

// SettingsSource is polled for a fresh snapshot on every input.
type SettingsSource interface {
	Snapshot() settings.Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings settings.Settings

func (s StaticSettings) Snapshot() settings.Settings { return settings.Settings(s) }

// Snapshot is what a UI needs to render the calculator.
type Snapshot struct {
	Parts      []Token `json:"parts"`
	Expression string  `json:"expression"`
	Display    string  `json:"display"`
	Preview    string  `json:"preview,omitempty"`
	Phase      Phase   `json:"phase"`
	HasError   bool    `json:"hasError"`
}

// Outcome is the result of one input. Committed is set when the input was
// "=", whether or not the evaluation succeeded.
type Outcome struct {
	Snapshot
	Committed *Result
}

type Option func(*Controller)

// WithLivePreview evaluates after every mutating input. Failures in preview
// are silent.
func WithLivePreview(enabled bool) Option {
	return func(c *Controller) { c.livePreview = enabled }
}

func WithOperatorPolicy(p OperatorPolicy) Option {
	return func(c *Controller) { c.acc = NewAccumulator(p) }
}

func WithHistory(h HistorySink) Option {
	return func(c *Controller) { c.history = h }
}

// WithClipboard sets where results go when autoCopyResult is on.
func WithClipboard(w clipboard.Writer) Option {
	return func(c *Controller) { c.clipboard = w }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller dispatches inputs for one calculation session. It is not safe
// for concurrent use; each session owns its own Controller.
type Controller struct {
	acc         *Accumulator
	settings    SettingsSource
	history     HistorySink
	clipboard   clipboard.Writer
	logger      *zap.Logger
	livePreview bool

	phase  Phase
	result float64
}

// NewController returns a controller in the Empty phase. A nil source means
// settings.Defaults.
func NewController(source SettingsSource, opts ...Option) *Controller {
	if source == nil {
		source = StaticSettings(settings.Defaults())
	}
	c := &Controller{
		acc:      NewAccumulator(ReplaceOperator),
		settings: source,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current session phase.
func (c *Controller) Phase() Phase { return c.phase }

// Snapshot renders the current state with the current settings.
func (c *Controller) Snapshot() Snapshot {
	return c.snapshot(formatOptions(c.settings.Snapshot()))
}

// HandleInput applies one token. In the Error phase only Clear is honoured.
func (c *Controller) HandleInput(ctx context.Context, t Token) Outcome {
	s := c.settings.Snapshot()
	opts := formatOptions(s)

	if c.phase == PhaseError && t.Kind != Clear {
		return Outcome{Snapshot: c.snapshot(opts)}
	}

	switch t.Kind {
	case Clear:
		c.acc.Clear()
		c.phase = PhaseEmpty
		return Outcome{Snapshot: c.snapshot(opts)}

	case Equals:
		r := c.commit(ctx, s, opts)
		return Outcome{Snapshot: c.snapshot(opts), Committed: &r}

	case Digit:
		c.leaveResult(true)
		c.acc.AppendDigit(t, s.DecimalPlaces)

	case Decimal:
		c.leaveResult(true)
		c.acc.AppendDecimalPoint(t)

	case Operator:
		c.leaveResult(false)
		c.acc.AppendOperator(t)

	case Percent:
		c.leaveResult(false)
		c.acc.AppendPart(t)

	case ToggleSign:
		c.leaveResult(false)
		c.acc.ToggleSign()

	case Backspace:
		c.leaveResult(false)
		c.acc.Backspace()

	default:
		c.logger.Debug("ignoring token", zap.Stringer("kind", t.Kind))
		return Outcome{Snapshot: c.snapshot(opts)}
	}

	c.phase = PhaseAccumulating
	if c.acc.Len() == 0 {
		c.phase = PhaseEmpty
	}
	return Outcome{Snapshot: c.snapshot(opts)}
}

// leaveResult ends the Result phase. A fresh start drops the seeded result;
// otherwise the seed stays as the left operand.
func (c *Controller) leaveResult(fresh bool) {
	if c.phase != PhaseResult {
		return
	}
	if fresh {
		c.acc.Reset(nil)
	}
	c.phase = PhaseAccumulating
}

func (c *Controller) commit(ctx context.Context, s settings.Settings, opts FormatOptions) Result {
	expression := c.acc.Text()
	r := Evaluate(c.acc.Parts(), opts)

	if !r.OK() {
		c.acc.MarkError()
		c.phase = PhaseError
		c.logger.Debug("evaluation failed",
			zap.String("expression", expression),
			zap.Error(r.Err),
		)
		return r
	}

	if s.AutoSaveHistory && c.history != nil {
		c.history.Record(ctx, expression, r.Display)
	}

	if s.AutoCopyResult && c.clipboard != nil {
		if err := c.clipboard.WriteAll(r.Display); err != nil {
			c.logger.Warn("failed to copy result", zap.Error(err))
		}
	}

	seed := NumberToken(numberString(r.Value))
	c.acc.Reset(&seed)
	c.phase = PhaseResult
	c.result = r.Value
	return r
}

func (c *Controller) snapshot(opts FormatOptions) Snapshot {
	state := c.acc.State()
	snap := Snapshot{
		Parts:      state.Parts,
		Expression: c.acc.Text(),
		Phase:      c.phase,
		HasError:   state.HasError,
	}
	if snap.Parts == nil {
		snap.Parts = []Token{}
	}

	switch c.phase {
	case PhaseEmpty:
		snap.Display = "0"
	case PhaseResult:
		snap.Display = FormatNumber(c.result, opts)
	case PhaseError:
		snap.Display = ErrorMarker
	default:
		snap.Display = snap.Expression
	}

	if c.livePreview && c.phase == PhaseAccumulating {
		if r := Evaluate(state.Parts, opts); r.OK() {
			snap.Preview = r.Display
		}
	}
	return snap
}

func formatOptions(s settings.Settings) FormatOptions {
	return FormatOptions{
		DecimalPlaces:     s.DecimalPlaces,
		ThousandSeparator: s.ThousandSeparator,
	}
}

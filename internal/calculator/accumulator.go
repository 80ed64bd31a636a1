package calculator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// OperatorPolicy decides what happens when an operator is appended while the
// trailing part is already an operator.
type OperatorPolicy int

const (
	// ReplaceOperator overwrites the trailing operator.
	ReplaceOperator OperatorPolicy = iota
	// RejectOperator ignores the new operator.
	RejectOperator
	// AppendOperator keeps both, leaving the evaluator to judge the result.
	AppendOperator
)

// ParseOperatorPolicy maps "replace", "reject" and "append" to a policy.
func ParseOperatorPolicy(s string) (OperatorPolicy, error) {
	switch s {
	case "replace", "":
		return ReplaceOperator, nil
	case "reject":
		return RejectOperator, nil
	case "append":
		return AppendOperator, nil
	}
	return ReplaceOperator, fmt.Errorf("unknown operator policy %q", s)
}

// ExpressionState is the live content of an accumulator.
type ExpressionState struct {
	Parts    []Token `json:"parts"`
	HasError bool    `json:"hasError"`
}

// Accumulator builds an expression out of keystrokes. Only the last part
// is ever open for digit merging. Every operation is total: none fails,
// and an operation that does not apply to the current state is a no-op.
type Accumulator struct {
	policy   OperatorPolicy
	parts    []Token
	hasError bool
}

func NewAccumulator(policy OperatorPolicy) *Accumulator {
	return &Accumulator{policy: policy}
}

// State returns a copy of the current state.
func (a *Accumulator) State() ExpressionState {
	return ExpressionState{Parts: a.Parts(), HasError: a.hasError}
}

// Parts returns a copy of the parts in expression order.
func (a *Accumulator) Parts() []Token {
	return append([]Token(nil), a.parts...)
}

func (a *Accumulator) Len() int { return len(a.parts) }

// Text renders the expression from the parts' display text.
func (a *Accumulator) Text() string {
	var b strings.Builder
	for _, p := range a.parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (a *Accumulator) last() *Token {
	if len(a.parts) == 0 {
		return nil
	}
	return &a.parts[len(a.parts)-1]
}

func (a *Accumulator) openNumber() *Token {
	if last := a.last(); last != nil && last.IsNumeric() {
		return last
	}
	return nil
}

// AppendDigit merges d into the open number or starts a new one. A lone "0"
// is replaced rather than prefixed. Once the fraction holds decimalPlaces
// digits further digits are dropped.
func (a *Accumulator) AppendDigit(d Token, decimalPlaces int) ExpressionState {
	part := a.openNumber()
	if part == nil {
		a.parts = append(a.parts, Token{Kind: Digit, Text: d.Text, Value: d.Value})
		return a.State()
	}

	if part.Value == "0" {
		part.Text, part.Value = d.Text, d.Value
		return a.State()
	}

	if _, frac, ok := strings.Cut(part.Value, "."); ok && len(frac) >= decimalPlaces {
		return a.State()
	}

	part.Text += d.Text
	part.Value += d.Value
	return a.State()
}

// AppendDecimalPoint adds "." to the open number, or starts "0." when there
// is none. A number already holding a point is left alone.
func (a *Accumulator) AppendDecimalPoint(t Token) ExpressionState {
	part := a.openNumber()
	if part == nil {
		a.parts = append(a.parts, Token{Kind: Decimal, Text: "0" + t.Text, Value: "0" + t.Value})
		return a.State()
	}

	if strings.Contains(part.Value, ".") {
		return a.State()
	}

	part.Text += t.Text
	part.Value += t.Value
	return a.State()
}

// AppendOperator appends op, applying the policy when the trailing part is
// already an operator.
func (a *Accumulator) AppendOperator(op Token) ExpressionState {
	if last := a.last(); last != nil && last.Kind == Operator {
		switch a.policy {
		case ReplaceOperator:
			*last = op
			return a.State()
		case RejectOperator:
			return a.State()
		}
	}

	a.parts = append(a.parts, op)
	return a.State()
}

// AppendPart appends t as a new part that never absorbs digits. Percent
// tokens take this path.
func (a *Accumulator) AppendPart(t Token) ExpressionState {
	a.parts = append(a.parts, t)
	return a.State()
}

// Backspace removes the last character of the open number, or the whole last
// part when it is a single character or not numeric.
func (a *Accumulator) Backspace() ExpressionState {
	last := a.last()
	if last == nil {
		return a.State()
	}

	if last.IsNumeric() && utf8.RuneCountInString(last.Text) > 1 {
		last.Text = dropLastRune(last.Text)
		last.Value = dropLastRune(last.Value)
		if last.Value != "-" && last.Value != "" {
			return a.State()
		}
	}

	a.parts = a.parts[:len(a.parts)-1]
	return a.State()
}

func dropLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

// ToggleSign negates the open number in place.
func (a *Accumulator) ToggleSign() ExpressionState {
	part := a.openNumber()
	if part == nil {
		return a.State()
	}

	v, err := strconv.ParseFloat(part.Value, 64)
	if err != nil {
		return a.State()
	}

	s := numberString(-v)
	part.Kind = Digit
	part.Text, part.Value = s, s
	return a.State()
}

// Clear empties the expression and clears the error flag.
func (a *Accumulator) Clear() ExpressionState {
	a.parts = nil
	a.hasError = false
	return a.State()
}

// Reset empties the expression and, when seed is non-nil, starts it with
// seed. Used after "=" to carry the result into the next calculation.
func (a *Accumulator) Reset(seed *Token) ExpressionState {
	a.Clear()
	if seed != nil {
		a.parts = append(a.parts, *seed)
	}
	return a.State()
}

// MarkError records a failed evaluation without touching the parts.
func (a *Accumulator) MarkError() ExpressionState {
	a.hasError = true
	return a.State()
}

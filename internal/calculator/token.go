package calculator

import (
	"errors"
	"fmt"
)

// ErrUnknownInput is returned by Lookup for input that matches no key.
var ErrUnknownInput = errors.New("unsupported input")

// Kind determines how the accumulator treats a token.
type Kind int

const (
	Digit Kind = iota
	Decimal
	Operator
	Equals
	Clear
	ToggleSign
	Percent
	Backspace
)

var kindNames = [...]string{
	Digit:      "digit",
	Decimal:    "decimal",
	Operator:   "operator",
	Equals:     "equals",
	Clear:      "clear",
	ToggleSign: "toggle-sign",
	Percent:    "percent",
	Backspace:  "backspace",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token kind %q", b)
}

// Token is one atomic input, and also one part of an expression.
//
// Text is what is rendered; Value is what participates in evaluation.
type Token struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// IsNumeric reports whether t is a digit run that can absorb further digits.
func (t Token) IsNumeric() bool {
	return t.Kind == Digit || t.Kind == Decimal
}

// NumberToken returns a numeric part holding s as both text and value.
func NumberToken(s string) Token {
	return Token{Kind: Digit, Text: s, Value: s}
}

// Keypad lists the calculator keys in button order.
var Keypad = []Token{
	{Kind: Clear, Text: "C", Value: "clear"},
	{Kind: ToggleSign, Text: "+/-", Value: "toggle-sign"},
	{Kind: Percent, Text: "%", Value: "%"},
	{Kind: Operator, Text: "÷", Value: "/"},

	{Kind: Digit, Text: "7", Value: "7"},
	{Kind: Digit, Text: "8", Value: "8"},
	{Kind: Digit, Text: "9", Value: "9"},
	{Kind: Operator, Text: "×", Value: "*"},

	{Kind: Digit, Text: "4", Value: "4"},
	{Kind: Digit, Text: "5", Value: "5"},
	{Kind: Digit, Text: "6", Value: "6"},
	{Kind: Operator, Text: "−", Value: "-"},

	{Kind: Digit, Text: "1", Value: "1"},
	{Kind: Digit, Text: "2", Value: "2"},
	{Kind: Digit, Text: "3", Value: "3"},
	{Kind: Operator, Text: "+", Value: "+"},

	{Kind: Backspace, Text: "←", Value: "backspace"},
	{Kind: Digit, Text: "0", Value: "0"},
	{Kind: Decimal, Text: ".", Value: "."},
	{Kind: Equals, Text: "=", Value: "="},
}

var keysByInput = func() map[string]Token {
	m := make(map[string]Token, 2*len(Keypad))
	for _, t := range Keypad {
		m[t.Text] = t
		m[t.Value] = t
	}
	return m
}()

// Lookup resolves a key by its glyph ("×") or canonical value ("*").
func Lookup(input string) (Token, error) {
	t, ok := keysByInput[input]
	if !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrUnknownInput, input)
	}
	return t, nil
}

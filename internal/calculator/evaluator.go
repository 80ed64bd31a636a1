package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrEmptyExpression     = errors.New("empty expression")
	ErrMalformedExpression = errors.New("malformed expression")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrNonFinite           = errors.New("result is not finite")
)

// Result is the outcome of one evaluation. It is never modified after
// Evaluate returns it.
type Result struct {
	Value   float64
	Display string
	Err     error
}

// OK reports whether the evaluation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Evaluate joins the parts' values and evaluates the resulting expression.
// Failures yield a Result with Err set and the ErrorMarker display.
func Evaluate(parts []Token, opts FormatOptions) Result {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Value)
	}

	v, err := EvaluateString(b.String())
	if err != nil {
		return Result{Display: ErrorMarker, Err: err}
	}
	return Result{Value: v, Display: FormatNumber(v, opts)}
}

// EvaluateString evaluates an arithmetic expression over decimal literals
// with binary + - * /, unary + -, and postfix % (divide by 100). * and /
// bind tighter than + and -; operators of equal precedence associate left.
func EvaluateString(src string) (float64, error) {
	toks, err := lex(src)
	if err != nil {
		return 0, err
	}
	if len(toks) == 0 {
		return 0, ErrEmptyExpression
	}

	p := &parser{toks: toks}
	v, err := p.parseBinary(1)
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.toks) {
		return 0, fmt.Errorf("%w: unexpected %s", ErrMalformedExpression, p.toks[p.pos])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return v, nil
}

type lexeme struct {
	op  byte // 0 for a number
	num float64
}

func (l lexeme) String() string {
	if l.op == 0 {
		return strconv.FormatFloat(l.num, 'g', -1, 64)
	}
	return strconv.Quote(string(l.op))
}

func lex(src string) ([]lexeme, error) {
	var toks []lexeme

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.IndexByte("+-*/%", c) >= 0:
			toks = append(toks, lexeme{op: c})
			i++
		case isDigit(c) || c == '.':
			end := scanNumber(src, i)
			v, err := strconv.ParseFloat(src[i:end], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", ErrMalformedExpression, src[i:end])
			}
			toks = append(toks, lexeme{num: v})
			i = end
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrMalformedExpression, c, i)
		}
	}

	return toks, nil
}

// scanNumber returns the end of the literal starting at i: digits with at
// most one point, then an optional exponent such as "e+21".
func scanNumber(src string, i int) int {
	seenPoint := false
	for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !seenPoint)) {
		if src[i] == '.' {
			seenPoint = true
		}
		i++
	}

	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

var precedence = map[byte]int{
	'+': 1,
	'-': 1,
	'*': 2,
	'/': 2,
}

type parser struct {
	toks []lexeme
	pos  int
}

func (p *parser) peek() (lexeme, bool) {
	if p.pos >= len(p.toks) {
		return lexeme{}, false
	}
	return p.toks[p.pos], true
}

// parseBinary is a precedence-climbing loop over binary operators.
func (p *parser) parseBinary(minPrec int) (float64, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		t, ok := p.peek()
		if !ok {
			return lhs, nil
		}
		prec, isBinary := precedence[t.op]
		if t.op == 0 || !isBinary || prec < minPrec {
			return lhs, nil
		}
		p.pos++

		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return 0, err
		}
		if lhs, err = apply(t.op, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("%w: missing operand", ErrMalformedExpression)
	}

	switch t.op {
	case '+', '-':
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.op == '-' {
			v = -v
		}
		return v, nil
	case 0:
		p.pos++
		v := t.num
		for {
			next, ok := p.peek()
			if !ok || next.op != '%' {
				return v, nil
			}
			p.pos++
			v /= 100
		}
	}

	return 0, fmt.Errorf("%w: unexpected %s", ErrMalformedExpression, t)
}

func apply(op byte, a, b float64) (float64, error) {
	var v float64
	switch op {
	case '+':
		v = a + b
	case '-':
		v = a - b
	case '*':
		v = a * b
	case '/':
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		v = a / b
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}

package calculator

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ErrorMarker is the display text of a failed evaluation.
const ErrorMarker = "Error"

const (
	exponentUpper  = 1e10
	exponentLower  = 1e-4
	exponentDigits = 5
)

// FormatOptions controls how results are rendered.
type FormatOptions struct {
	DecimalPlaces     int
	ThousandSeparator bool
}

// Format renders a raw result for display. value may be a number, a numeric
// string, ErrorMarker or nil; anything unparseable renders as "0".
func Format(value any, opts FormatOptions) string {
	var num float64

	switch v := value.(type) {
	case nil:
		return "0"
	case string:
		if v == ErrorMarker {
			return v
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return "0"
		}
		num = f
	case float64:
		num = v
	case float32:
		num = float64(v)
	case int:
		num = float64(v)
	case int64:
		num = float64(v)
	default:
		return "0"
	}

	return FormatNumber(num, opts)
}

// FormatNumber renders v. Magnitudes of 1e10 and above, or below 1e-4, use
// exponential notation with five fractional digits. Integers are rendered
// without a fraction; everything else with exactly DecimalPlaces digits.
func FormatNumber(v float64, opts FormatOptions) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if v == 0 {
		return "0"
	}

	abs := math.Abs(v)
	if abs >= exponentUpper || abs < exponentLower {
		return trimExponent(strconv.FormatFloat(v, 'e', exponentDigits, 64))
	}

	var s string
	if v == math.Trunc(v) {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	} else {
		s = toFixed(abs, max(opts.DecimalPlaces, 0))
		if v < 0 {
			s = "-" + s
		}
	}

	if opts.ThousandSeparator {
		s = groupThousands(s)
	}
	return s
}

// fixedPrec holds a float64 below 1e10 scaled by 10^places exactly for any
// practical number of places.
const fixedPrec = 256

// toFixed renders abs with exactly places fractional digits. Values exactly
// halfway between two candidates round up; everything else rounds to the
// nearest candidate, as strconv does.
func toFixed(abs float64, places int) string {
	s := strconv.FormatFloat(abs, 'f', places, 64)

	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	scaled := new(big.Float).SetPrec(fixedPrec).SetFloat64(abs)
	scaled.Mul(scaled, new(big.Float).SetPrec(fixedPrec).SetInt(pow))

	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(fixedPrec).Sub(scaled, new(big.Float).SetPrec(fixedPrec).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) != 0 {
		return s
	}

	digits := whole.Add(whole, big.NewInt(1)).String()
	if places == 0 {
		return digits
	}
	if len(digits) <= places {
		digits = strings.Repeat("0", places-len(digits)+1) + digits
	}
	return digits[:len(digits)-places] + "." + digits[len(digits)-places:]
}

// groupThousands inserts "," every three digits of the integer part.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.Grow(len(s) + len(intPart)/3 + 1)
	b.WriteString(sign)

	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}

	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// trimExponent rewrites Go's "e-05" exponent form as "e-5".
func trimExponent(s string) string {
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok || len(exp) < 2 {
		return s
	}
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

// numberString renders v the way a result is seeded back into an
// expression: shortest round-trip digits, exponent form outside [1e-6, 1e21).
func numberString(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		return trimExponent(strconv.FormatFloat(v, 'e', -1, 64))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

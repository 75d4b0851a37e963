// Package decimal implements the CQL System.Decimal type: a signed, arbitrary precision decimal
// with a minimum of 28 significant digits and a fixed scale of 8 fractional digits
// (https://cql.hl7.org/09-b-cqlreference.html#decimal). Arithmetic preserves those bounds and
// fails with ErrOverflow when a result cannot be represented, rather than silently truncating or
// saturating.
package decimal

import (
	"errors"
	"fmt"
	"strings"

	shopspring "github.com/shopspring/decimal"
)

// MaxScale is the fixed number of fractional digits a CQL Decimal preserves.
const MaxScale = 8

// MaxPrecision is the minimum number of significant digits a CQL Decimal implementation must
// support, per the CQL specification.
const MaxPrecision = 28

// ErrOverflow is returned when an arithmetic result cannot be represented within MaxPrecision
// significant digits at MaxScale.
var ErrOverflow = errors.New("decimal: result exceeds maximum precision")

func init() {
	shopspring.DivisionPrecision = MaxScale + 4
}

// Decimal is a CQL System.Decimal value.
type Decimal struct {
	d shopspring.Decimal
}

// Zero is the Decimal value 0.
var Zero = Decimal{d: shopspring.Zero}

// NewFromString parses s (e.g. "1.5", "-3") into a Decimal, rounding to MaxScale and verifying
// the result fits within MaxPrecision significant digits.
func NewFromString(s string) (Decimal, error) {
	d, err := shopspring.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal: invalid literal %q: %w", s, err)
	}
	return normalize(d)
}

// NewFromInt64 constructs a Decimal from an int64.
func NewFromInt64(v int64) Decimal {
	return Decimal{d: shopspring.NewFromInt(v)}
}

// NewFromFloat constructs a Decimal from a float64. It is used only at boundaries such as UCUM
// conversion factors, never for CQL literal parsing (which goes through NewFromString to avoid
// binary floating point rounding).
func NewFromFloat(v float64) (Decimal, error) {
	return normalize(shopspring.NewFromFloat(v))
}

func normalize(d shopspring.Decimal) (Decimal, error) {
	rounded := d.Round(MaxScale)
	digits := significantDigits(rounded)
	if digits > MaxPrecision {
		return Decimal{}, ErrOverflow
	}
	return Decimal{d: rounded}, nil
}

// significantDigits returns the number of base-10 digits needed to represent d's unscaled value,
// ignoring sign.
func significantDigits(d shopspring.Decimal) int {
	coeff := d.Coefficient()
	s := coeff.Abs(coeff).String()
	if s == "0" {
		return 1
	}
	return len(s)
}

// Add returns a+b, failing with ErrOverflow if the result cannot be represented.
func Add(a, b Decimal) (Decimal, error) { return normalize(a.d.Add(b.d)) }

// Sub returns a-b, failing with ErrOverflow if the result cannot be represented.
func Sub(a, b Decimal) (Decimal, error) { return normalize(a.d.Sub(b.d)) }

// Mul returns a*b, failing with ErrOverflow if the result cannot be represented.
func Mul(a, b Decimal) (Decimal, error) { return normalize(a.d.Mul(b.d)) }

// Div returns a/b. If b is zero, ok is false and the caller is responsible for propagating CQL
// Null, per the CQL spec which defines division by zero as Null rather than an error.
func Div(a, b Decimal) (result Decimal, ok bool, err error) {
	if b.d.IsZero() {
		return Decimal{}, false, nil
	}
	q, nerr := normalize(a.d.Div(b.d))
	if nerr != nil {
		return Decimal{}, true, nerr
	}
	return q, true, nil
}

// Mod returns a mod b using truncated division, matching CQL's mod operator. ok is false when b
// is zero.
func Mod(a, b Decimal) (result Decimal, ok bool, err error) {
	if b.d.IsZero() {
		return Decimal{}, false, nil
	}
	q, nerr := normalize(a.d.Mod(b.d))
	if nerr != nil {
		return Decimal{}, true, nerr
	}
	return q, true, nil
}

// Neg returns -a.
func (a Decimal) Neg() Decimal { return Decimal{d: a.d.Neg()} }

// Abs returns |a|.
func (a Decimal) Abs() Decimal { return Decimal{d: a.d.Abs()} }

// Cmp compares a to b, returning -1, 0, or 1.
func (a Decimal) Cmp(b Decimal) int { return a.d.Cmp(b.d) }

// Equal reports whether a and b represent the same numeric value.
func (a Decimal) Equal(b Decimal) bool { return a.d.Equal(b.d) }

// IsZero reports whether a is zero.
func (a Decimal) IsZero() bool { return a.d.IsZero() }

// Sign returns -1, 0 or 1 depending on the sign of a.
func (a Decimal) Sign() int { return a.d.Sign() }

// Float64 returns the nearest float64 approximation of a, for boundaries (such as UCUM factor
// multiplication) that must interoperate with floating point.
func (a Decimal) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// Int64 truncates a towards zero and returns the integer part of its value.
func (a Decimal) Int64() int64 { return a.d.Truncate(0).IntPart() }

// Round rounds a to places fractional digits (places must be <= MaxScale).
func (a Decimal) Round(places int32) Decimal { return Decimal{d: a.d.Round(places)} }

// Truncate truncates a to places fractional digits without rounding.
func (a Decimal) Truncate(places int32) Decimal { return Decimal{d: a.d.Truncate(places)} }

// Ceil returns the smallest integer Decimal >= a.
func (a Decimal) Ceil() Decimal { return Decimal{d: a.d.Ceil()} }

// Floor returns the largest integer Decimal <= a.
func (a Decimal) Floor() Decimal { return Decimal{d: a.d.Floor()} }

// String renders a using a plain (non-exponential) representation with trailing fractional
// zeros trimmed, matching how CQL decimal literals are conventionally displayed.
func (a Decimal) String() string {
	return trimTrailingZeros(a.d.String())
}

// MarshalJSON implements json.Marshaler, rendering the Decimal as a bare JSON number.
func (a Decimal) MarshalJSON() ([]byte, error) {
	return []byte(trimTrailingZeros(a.d.String())), nil
}

// trimTrailingZeros strips trailing fractional zeros (and a dangling decimal point) from a plain
// decimal string. Internally every Decimal is normalized to MaxScale fractional digits, which
// would otherwise print as e.g. "3.50000000" for the value 3.5.
func trimTrailingZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact two-decimal currency amount. The value is kept in minor
// units (cents), so addition, subtraction and comparison never drift the way
// binary floating point does. Conversion to decimal strings or floats happens
// only at I/O boundaries (JSON, database).
type Money struct {
	cents int64
}

var ErrInvalidAmount = errors.New("invalid money amount")

// Zero returns a zero amount.
func Zero() Money {
	return Money{}
}

// FromCents builds an amount from minor units.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// FromFloat converts a float to an amount, rounding half-up to the cent.
func FromFloat(f float64) Money {
	d := decimal.NewFromFloat(f).Mul(decimal.New(1, 2)).Round(0)
	return Money{cents: d.IntPart()}
}

// FromDecimal converts a decimal to an amount, rounding half-up to the cent.
func FromDecimal(d decimal.Decimal) Money {
	return Money{cents: d.Mul(decimal.New(1, 2)).Round(0).IntPart()}
}

// Parse reads a decimal string like "50.00" or "-3.5".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d), nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.cents }

// Decimal returns the amount as an exact decimal value.
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.cents, -2) }

// Float64 converts for display only; never feed the result back into arithmetic.
func (m Money) Float64() float64 { return m.Decimal().InexactFloat64() }

// String formats with two decimal places, e.g. "42.50".
func (m Money) String() string { return m.Decimal().StringFixed(2) }

func (m Money) Add(b Money) Money { return Money{cents: m.cents + b.cents} }
func (m Money) Sub(b Money) Money { return Money{cents: m.cents - b.cents} }
func (m Money) Neg() Money        { return Money{cents: -m.cents} }

func (m Money) IsZero() bool     { return m.cents == 0 }
func (m Money) IsNegative() bool { return m.cents < 0 }
func (m Money) IsPositive() bool { return m.cents > 0 }

// Cmp returns -1, 0 or 1.
func (m Money) Cmp(b Money) int {
	switch {
	case m.cents < b.cents:
		return -1
	case m.cents > b.cents:
		return 1
	default:
		return 0
	}
}

func (m Money) Equal(b Money) bool       { return m.cents == b.cents }
func (m Money) LessThan(b Money) bool    { return m.cents < b.cents }
func (m Money) GreaterThan(b Money) bool { return m.cents > b.cents }

// Min returns the smaller of the two amounts.
func Min(a, b Money) Money {
	if a.cents < b.cents {
		return a
	}
	return b
}

// ClampZero floors the amount at zero.
func (m Money) ClampZero() Money {
	if m.cents < 0 {
		return Money{}
	}
	return m
}

// MulInt scales by an integer factor (e.g. months times monthly due).
func (m Money) MulInt(n int64) Money { return Money{cents: m.cents * n} }

// DivFloor returns how many whole times b fits into m. Used for the
// months-in-arrears figure. Returns 0 when b is not positive.
func (m Money) DivFloor(b Money) int64 {
	if b.cents <= 0 || m.cents <= 0 {
		return 0
	}
	return m.cents / b.cents
}

// Split divides the amount into n parts that differ by at most one cent and
// sum exactly to the original. The leftover cents land on the first parts.
func (m Money) Split(n int) []Money {
	if n <= 0 {
		return nil
	}
	base := m.cents / int64(n)
	rem := m.cents % int64(n)
	parts := make([]Money, n)
	for i := range parts {
		parts[i] = Money{cents: base}
	}
	// Distribute the remainder one cent at a time, sign-aware.
	step := int64(1)
	if rem < 0 {
		step = -1
		rem = -rem
	}
	for i := int64(0); i < rem; i++ {
		parts[i].cents += step
	}
	return parts
}

// Allocate splits the amount proportionally to the given weights, rounding
// half-up to the cent. Rounding drift is corrected on the largest share so the
// parts always sum exactly to the original amount.
func (m Money) Allocate(weights []int64) []Money {
	if len(weights) == 0 {
		return nil
	}
	var total int64
	for _, w := range weights {
		if w < 0 {
			w = 0
		}
		total += w
	}
	parts := make([]Money, len(weights))
	if total == 0 {
		parts[0] = m
		return parts
	}
	amount := decimal.NewFromInt(m.cents)
	totalD := decimal.NewFromInt(total)
	var allocated int64
	largest := 0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		share := amount.Mul(decimal.NewFromInt(w)).Div(totalD).Round(0).IntPart()
		parts[i] = Money{cents: share}
		allocated += share
		if w > weights[largest] {
			largest = i
		}
	}
	parts[largest].cents += m.cents - allocated
	return parts
}

// MarshalJSON renders the amount as a fixed two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON number or a decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		m.cents = 0
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	m.cents = parsed.cents
	return nil
}

// Value implements driver.Valuer so amounts map onto DECIMAL columns.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for DECIMAL columns coming back as bytes,
// strings or numbers depending on the driver.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		m.cents = 0
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		m.cents = parsed.cents
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		m.cents = parsed.cents
		return nil
	case int64:
		m.cents = v * 100
		return nil
	case float64:
		m.cents = FromFloat(v).cents
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidAmount, src)
	}
}

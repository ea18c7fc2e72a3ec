// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Decimal arithmetic (percentages,
// averages) goes through shopspring/decimal so no float ever touches a
// currency value.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Signs, zero and exponents are
// rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "+-eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsInteger() || cents.Cmp(decimal.NewFromInt(maxCents)) > 0 {
		return 0, ErrInvalidAmount
	}
	if cents.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

const maxCents = (1<<63 - 1) / 100

// NewMoney returns the amount of cents as Money.
func NewMoney(cents int64) Money { return Money{Cents: cents} }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount as a fixed-point decimal with two places.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// DivRound divides m by n and rounds half-up to the cent. Division by zero
// yields zero.
func (m Money) DivRound(n int64) Money {
	if n == 0 {
		return Money{}
	}
	q := decimal.NewFromInt(m.Cents).DivRound(decimal.NewFromInt(n), 0)
	return Money{Cents: q.IntPart()}
}

// MarshalJSON encodes money as a quoted fixed-point string ("150.00").
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
// Sub-cent digits are rounded half-up. Negative or out of range amounts
// are rejected with ErrInvalidAmount.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if cents.Sign() < 0 || cents.Cmp(decimal.NewFromInt(maxCents)) > 0 {
		return ErrInvalidAmount
	}
	m.Cents = cents.IntPart()
	return nil
}

// Percent is a percentage with two decimal places, serialized as a JSON number.
type Percent struct {
	decimal.Decimal
}

// Percentage returns part/total*100 rounded half-up to two places; zero when
// total is zero.
func Percentage(part, total Money) Percent {
	if total.Cents == 0 {
		return Percent{Decimal: decimal.Zero}
	}
	p := decimal.NewFromInt(part.Cents).Mul(hundred).DivRound(decimal.NewFromInt(total.Cents), 2)
	return Percent{Decimal: p}
}

func (p Percent) String() string { return p.StringFixed(2) }

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.StringFixed(2)), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	return p.Decimal.UnmarshalJSON(b)
}

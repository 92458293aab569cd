package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Money is a fixed two-decimal USD amount stored as integer cents.
type Money int64

// moneyContext rounds half-up at a precision far beyond any realistic amount.
var moneyContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

// Cents builds a Money value from a cent count.
func Cents(c int64) Money { return Money(c) }

// ParseMoney parses a decimal string such as "150", "150.5" or "150.50".
// Amounts with more than two decimal places are rejected rather than rounded.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("parsing amount: empty value")
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return 0, fmt.Errorf("parsing amount %q: not a finite number", s)
	}

	q := new(apd.Decimal)
	cond, err := moneyContext.Quantize(q, d, -2)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if cond.Inexact() {
		return 0, fmt.Errorf("parsing amount %q: more than two decimal places", s)
	}

	cents := new(apd.Decimal)
	if _, err := moneyContext.Mul(cents, q, apd.New(100, 0)); err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	v, err := cents.Int64()
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return Money(v), nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 { return int64(m) }

// Decimal returns the amount as an apd decimal with exponent -2.
func (m Money) Decimal() *apd.Decimal { return apd.New(int64(m), -2) }

// String renders the amount with exactly two decimals, e.g. "75.00".
func (m Money) String() string { return m.Decimal().Text('f') }

// Float64 is for display math only (percentages, charts).
func (m Money) Float64() float64 { return float64(m) / 100 }

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsNegative() bool { return m < 0 }

func (m Money) Add(o Money) Money { return m + o }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "75.00" and 75.00.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MoneyPtr returns a pointer to m, for optional rate fields.
func MoneyPtr(m Money) *Money { return &m }

package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// inputPlaces is the number of fraction digits accepted on money and rate inputs.
	inputPlaces = 4
	// maxInputScale bounds the exponent of accepted inputs, trailing zeros included.
	maxInputScale = 18
	// maxIntegerDigits bounds the integer part of accepted inputs.
	maxIntegerDigits = 12
)

var (
	errTooPrecise = fmt.Errorf("must have at most %d decimal places", inputPlaces)
	errTooLarge   = errors.New("is too large")
)

// Money is a currency amount rounded to cents. It marshals to a JSON number
// with exactly two fraction digits.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d half away from zero to cents.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: roundCents(d)}
}

// MoneyFromString parses s and rounds it to cents. It panics on malformed input
// and is meant for fixtures and constants.
func MoneyFromString(s string) Money {
	return NewMoney(decimal.RequireFromString(s))
}

// MarshalJSON renders the amount as a bare number such as 12.50.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts quoted or bare numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.Decimal = roundCents(d)
	return nil
}

// String returns the amount with two fraction digits.
func (m Money) String() string {
	return m.StringFixed(2)
}

func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentOf multiplies base by rate percent. Shift moves the decimal point, so
// no division is involved.
func percentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate.Shift(-2))
}

// taxLine computes a single rounded tax line.
func taxLine(base, rate decimal.Decimal) decimal.Decimal {
	return roundCents(percentOf(base, rate))
}

func withinInputPrecision(d decimal.Decimal) bool {
	return d.Truncate(inputPlaces).Equal(d)
}

// CheckInputRange rejects decimals whose exponent or magnitude is out of the
// accepted range. It only inspects the exponent and the coefficient's size,
// so it must run before any comparison that rescales d.
func CheckInputRange(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp < -maxInputScale {
		return errTooPrecise
	}
	if exp > maxIntegerDigits {
		return errTooLarge
	}
	if d.IsZero() {
		return nil
	}
	// 2^128 scaled by 10^-maxInputScale is still beyond maxIntegerDigits.
	if d.Coefficient().BitLen() > 128 || d.NumDigits()+int(exp) > maxIntegerDigits {
		return errTooLarge
	}
	return nil
}

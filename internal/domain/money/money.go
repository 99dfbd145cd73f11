// Package money parses and validates monetary amounts.
//
// Amounts are fixed-point decimals with at most 2 fractional digits and all
// comparisons are exact decimal comparisons. Floats are never involved; the
// representability bugs they invite are exactly what this package exists to
// rule out.
//
// The parse functions are pure: they validate one raw token and return a
// value or a typed error. Re-prompt retry loops belong to the interactive
// shell, never to this package.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Validation errors returned by the parse functions.
var (
	// ErrNotANumber is returned when the raw input is not a decimal number.
	ErrNotANumber = errors.New("amount is not a number")

	// ErrTooManyDecimals is returned when the input carries 3 or more
	// fractional digits.
	ErrTooManyDecimals = errors.New("amount must have at most 2 decimal places")

	// ErrNegative is returned when a non-negative amount is required.
	ErrNegative = errors.New("amount cannot be negative")

	// ErrOutOfRange is returned when an amount falls outside its permitted
	// range (e.g. a debt balance above the configured ceiling).
	ErrOutOfRange = errors.New("amount is out of range")

	// ErrOverflow is returned when a transfer amount exceeds MaxTransfer.
	ErrOverflow = errors.New("amount exceeds the maximum transfer value")
)

// MaxTransfer is the largest transfer amount a single operation accepts.
var MaxTransfer = decimal.RequireFromString("1000000000.00")

// ParseLimit parses a daily limit amount. It succeeds only if the input is
// a valid decimal number with at most 2 fractional digits and is not
// negative (limits are non-negative by invariant).
func ParseLimit(raw string) (decimal.Decimal, error) {
	d, err := parse(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if d.IsNegative() {
		return decimal.Decimal{}, ErrNegative
	}

	return d, nil
}

// ParseDebt parses a debt balance amount and additionally enforces
// 0 <= value <= maxDebt.
func ParseDebt(raw string, maxDebt decimal.Decimal) (decimal.Decimal, error) {
	d, err := parse(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if d.IsNegative() || d.GreaterThan(maxDebt) {
		return decimal.Decimal{}, ErrOutOfRange
	}

	return d, nil
}

// ParseTransferAmount parses a transfer amount: non-negative, at most
// 2 fractional digits, and no larger than MaxTransfer.
func ParseTransferAmount(raw string) (decimal.Decimal, error) {
	d, err := parse(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if d.IsNegative() {
		return decimal.Decimal{}, ErrNegative
	}

	if d.GreaterThan(MaxTransfer) {
		return decimal.Decimal{}, ErrOverflow
	}

	return d, nil
}

// Format renders an amount with exactly 2 fractional digits, the canonical
// display form for every monetary value in the application.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// parse converts raw input into a decimal, rejecting malformed numbers and
// inputs written with 3 or more fractional digits. The scale check is
// textual on purpose: "1.100" is rejected even though its value fits in
// 2 decimal places.
func parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, ErrNotANumber
	}

	if d.Exponent() < -2 {
		return decimal.Decimal{}, ErrTooManyDecimals
	}

	return d, nil
}

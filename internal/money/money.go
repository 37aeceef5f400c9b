// Package money does the monetary arithmetic of the booking flow on decimals.
// Amounts travel as 2-decimal strings ("150.00") everywhere else in the app;
// floats are never used for money.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

const Currency = "ZAR"

// DepositRate is the fixed fraction of the service price collected at booking
// time. The remainder is settled at the salon.
var DepositRate = decimal.RequireFromString("0.30")

var ErrInvalidAmount = errors.New("invalid amount")

func Parse(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Deposit computes DepositRate of price, rounded half-up to cents.
func Deposit(price string) (string, error) {
	p, err := Parse(price)
	if err != nil {
		return "", err
	}
	return Format(p.Mul(DepositRate).Round(2)), nil
}

// BalanceDue is the remainder owed after the deposit, computed from the price
// snapshot rather than back-derived from the deposit rate.
func BalanceDue(price, deposit string) (string, error) {
	p, err := Parse(price)
	if err != nil {
		return "", err
	}
	d, err := Parse(deposit)
	if err != nil {
		return "", err
	}
	due := p.Sub(d)
	if due.IsNegative() {
		return "", ErrInvalidAmount
	}
	return Format(due), nil
}

// Equal reports whether two amount strings denote the same value, regardless
// of formatting ("150" vs "150.00").
func Equal(a, b string) bool {
	da, err := Parse(a)
	if err != nil {
		return false
	}
	db, err := Parse(b)
	if err != nil {
		return false
	}
	return da.Equal(db)
}

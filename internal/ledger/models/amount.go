package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fractional digits an amount may carry.
	AmountScale = 2
	// amountMaxIntegerDigits matches numeric(20,2).
	amountMaxIntegerDigits = 18
)

// ValidateAmount enforces amount > 0 with at most two fractional digits and
// eighteen integer digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrInvalidAmount
	}
	if len(amount.Truncate(0).String()) > amountMaxIntegerDigits {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount parses a decimal string and validates it.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

package api

import "github.com/shopspring/decimal"

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ValidateAmount accepts positive amounts with at most two decimal places
// that fit a money column.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return Errorf(ErrValidation, "amount must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return Errorf(ErrValidation, "amount has more than two decimal places")
	}
	if amount.GreaterThan(MaxAmount) {
		return Errorf(ErrValidation, "amount exceeds %s", MaxAmount.StringFixed(2))
	}
	return nil
}

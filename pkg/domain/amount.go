package domain

import (
	"github.com/shopspring/decimal"

	dErrors "carewatch/pkg/domain-errors"
)

// MaxAmount bounds a single ledger amount so it fits NUMERIC(18,2).
var MaxAmount = decimal.New(1, 16)

// ValidateAmount enforces a positive amount with at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return dErrors.New(dErrors.CodeInvariantViolation, "amount must have at most two decimal places")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return dErrors.New(dErrors.CodeInvariantViolation, "amount is too large")
	}
	return nil
}

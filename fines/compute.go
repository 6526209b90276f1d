package fines

import (
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-loan-ledger/core"
)

// IsOverdue returns true if asOf lies after the due date.
func IsOverdue(due core.Date, asOf core.Date) bool {
	return core.DaysBetween(due, asOf) > 0
}

// OverdueDays returns the whole days asOf lies after the due date, 0 if it does not.
func OverdueDays(due core.Date, asOf core.Date) int {
	return max(0, core.DaysBetween(due, asOf))
}

// Amount returns overdueDays * ratePerDay, zero for non-positive days.
func Amount(overdueDays int, ratePerDay decimal.Decimal) decimal.Decimal {
	if overdueDays <= 0 {
		return decimal.Zero
	}

	return ratePerDay.Mul(decimal.NewFromInt(int64(overdueDays)))
}

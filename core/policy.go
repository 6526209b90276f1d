package core

import "github.com/shopspring/decimal"

const (
	DefaultLoanDays    = 14
	DefaultMaxRenewals = 2
	DefaultRenewalDays = 7
	DefaultFinePerDay  = 10
)

// Policy holds the lending rules of the library.
type Policy struct {
	LoanDays    int
	MaxRenewals int
	RenewalDays int
	FinePerDay  decimal.Decimal
}

// DefaultPolicy returns 14 loan days, 2 renewals of 7 days each and a fine of 10 per overdue day.
func DefaultPolicy() Policy {
	return Policy{
		LoanDays:    DefaultLoanDays,
		MaxRenewals: DefaultMaxRenewals,
		RenewalDays: DefaultRenewalDays,
		FinePerDay:  decimal.NewFromInt(DefaultFinePerDay),
	}
}

// Validate checks that all periods are positive, renewals are not negative and the fine rate is not negative.
func (p Policy) Validate() error {
	if p.LoanDays < 1 || p.RenewalDays < 1 || p.MaxRenewals < 0 || p.FinePerDay.IsNegative() {
		return ErrInvalidPolicy
	}

	return nil
}

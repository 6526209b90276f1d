package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FineStatus is the settlement state of a Fine.
type FineStatus string

const (
	// FinePending is the initial state of every fine.
	FinePending FineStatus = "PENDING"

	// FinePaid is terminal, PaymentDate and PaymentMethod are set.
	FinePaid FineStatus = "PAID"

	// FineWaived is terminal, WaivedBy and WaiveReason are set.
	FineWaived FineStatus = "WAIVED"
)

// PaymentMethod is the way a fine was paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentUPI  PaymentMethod = "UPI"
)

// IsKnown returns true for the supported payment methods.
func (m PaymentMethod) IsKnown() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	default:
		return false
	}
}

// Fine is the penalty for the late return of exactly one Loan.
type Fine struct {
	ID               FineID
	LoanID           LoanID
	Amount           decimal.Decimal
	OverdueDays      int
	Status           FineStatus
	CreatedOn        Date
	PaymentDate      Date
	PaymentMethod    PaymentMethod
	PaymentReference string
	WaivedBy         uuid.UUID
	WaiveReason      string
	Version          uint
}

// IsSettled returns true once the fine is paid or waived.
func (f Fine) IsSettled() bool {
	return f.Status != FinePending
}

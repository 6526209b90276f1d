package core

import (
	"github.com/google/uuid"
)

// LoanStatus is the lifecycle state of a Loan.
type LoanStatus string

const (
	// LoanActive means the book is with the borrower.
	LoanActive LoanStatus = "ACTIVE"

	// LoanReturned means the book came back; a returned loan never changes again.
	LoanReturned LoanStatus = "RETURNED"
)

// Loans is a slice of Loan instances.
type Loans = []Loan

// Loan represents one borrowing of a book copy (an "issue").
//
// ReturnDate is the zero Date while the loan is active.
// IssuedBy and ReturnedTo reference the actors who handled the transitions, uuid.Nil if unknown.
type Loan struct {
	ID           LoanID
	ISBN         ISBNString
	BorrowerID   BorrowerID
	IssueDate    Date
	DueDate      Date
	ReturnDate   Date
	RenewalCount int
	MaxRenewals  int
	IssuedBy     uuid.UUID
	ReturnedTo   uuid.UUID
	Version      uint
}

// Status derives the lifecycle state from the return date.
func (l Loan) Status() LoanStatus {
	if l.IsReturned() {
		return LoanReturned
	}

	return LoanActive
}

// IsReturned returns true once the loan has a return date.
func (l Loan) IsReturned() bool {
	return !l.ReturnDate.IsZero()
}

// IsActiveFor returns true if this loan is an active loan of the given book held by the given borrower.
func (l Loan) IsActiveFor(isbn ISBNString, borrowerID BorrowerID) bool {
	return !l.IsReturned() && l.ISBN == isbn && l.BorrowerID == borrowerID
}

// RenewalsLeft returns how many more renewals are allowed.
func (l Loan) RenewalsLeft() int {
	if l.RenewalCount >= l.MaxRenewals {
		return 0
	}

	return l.MaxRenewals - l.RenewalCount
}

// CanRenew returns true if the loan is active and has renewals left.
func (l Loan) CanRenew() bool {
	return !l.IsReturned() && l.RenewalsLeft() > 0
}

package core

import "errors"

var (
	// ErrUnavailable is returned when a book should be issued but no copies are available.
	ErrUnavailable = errors.New("no copies of the book are available")

	// ErrDuplicateLoan is returned when the borrower already holds an active loan of the same book.
	ErrDuplicateLoan = errors.New("borrower already holds an active loan of this book")

	// ErrAlreadyReturned is returned when a returned loan should be renewed or returned again.
	ErrAlreadyReturned = errors.New("loan is already returned")

	// ErrRenewalLimit is returned when a loan has reached its maximum number of renewals.
	ErrRenewalLimit = errors.New("maximum number of renewals reached")

	// ErrAlreadySettled is returned when a fine that is not pending should be paid or waived.
	ErrAlreadySettled = errors.New("fine is already settled")

	// ErrRenewalNotPermitted is returned when the actor is neither the borrower nor staff.
	ErrRenewalNotPermitted = errors.New("actor is not permitted to renew this loan")

	// ErrBookMismatch is returned when a book is passed together with a loan of a different book.
	ErrBookMismatch = errors.New("book does not belong to the loan")

	// ErrReturnBeforeIssue is returned when the return date lies before the issue date.
	ErrReturnBeforeIssue = errors.New("return date is before the issue date")

	// ErrCopiesExceedTotal is returned when a return would push the available copies above the total.
	ErrCopiesExceedTotal = errors.New("available copies would exceed total copies")

	// ErrInvalidInventory is returned for books that violate 0 <= available <= total or have no copies at all.
	ErrInvalidInventory = errors.New("book inventory is invalid")

	// ErrInvalidLoanPeriod is returned for negative loan or extension periods.
	ErrInvalidLoanPeriod = errors.New("loan period must not be negative")

	// ErrUnknownPaymentMethod is returned when a fine should be paid with an unsupported method.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrNilRecord is returned when a required record pointer is nil.
	ErrNilRecord = errors.New("record must not be nil")

	// ErrInvalidPolicy is returned for policies with non-positive periods or a negative fine rate.
	ErrInvalidPolicy = errors.New("lending policy is invalid")
)

// Package returnbook implements the Return Book use case.
//
// The handler closes the loan as of the given return date, puts the copy back on the shelf and,
// for a late return, creates the PENDING fine. Loan, inventory and fine are saved in one transaction.
// Returning a loan twice fails with core.ErrAlreadyReturned, the copy is never put back twice.
package returnbook

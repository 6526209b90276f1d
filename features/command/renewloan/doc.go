// Package renewloan implements the Renew Loan use case.
//
// The borrower or a staff member extends the due date of an active loan, up to the loan's renewal limit.
package renewloan

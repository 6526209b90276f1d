// Package issuebook implements the Issue Book use case.
//
// The handler loads the book and the borrower's active loans, lets the ledger decide,
// and saves the decremented inventory together with the new loan in one transaction.
// It follows the Load-Decide-Save pattern and retries the whole cycle on concurrency conflicts.
//
// Replaying a command whose LoanID is already stored for the same book and borrower is an idempotent success.
package issuebook

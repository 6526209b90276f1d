// Package memoryengine keeps books, loans, fines, notifications and the audit log in process memory.
//
// It honors the same contract as postgresengine: versioned records, all-or-nothing saves,
// shell.ErrConcurrencyConflict on stale versions and core.ErrDuplicateLoan for a second active loan
// of the same book by the same borrower. It backs the command handler tests and the demo.
package memoryengine

// Package ledger implements the loan lifecycle of a library: issuing, renewing and returning books.
//
// A Ledger works on records that the caller loaded and persists whatever it returns.
// Issue and return of the same book are serialized, all checks run before any record is touched,
// and the notification and audit sinks are called after the change is complete.
// A failing sink is logged and never undoes a change.
package ledger

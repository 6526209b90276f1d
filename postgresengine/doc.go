// Package postgresengine persists books, loans, fines, notifications and the audit log in PostgreSQL.
//
// The Store can be created from a pgxpool.Pool, a sql.DB (lib/pq) or a sqlx.DB.
// All SQL is built with goqu in non-prepared mode and runs through the adapters in internal/adapters.
//
// Concurrency control is optimistic: every row carries a version column, every update is guarded
// by "WHERE version = expected" and bumps it, and an update that touches no row fails with
// shell.ErrConcurrencyConflict. Each Save* method runs in one transaction, so a failed save leaves nothing behind.
// A partial unique index allows only one active loan per (isbn, borrower), violations surface as core.ErrDuplicateLoan.
//
// The Store also implements core.NotificationSink and core.AuditSink.
package postgresengine

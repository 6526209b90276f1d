// Package adapters provide database adapter implementations for the PostgreSQL loan store.
//
// Three PostgreSQL client libraries are supported: pgx.Pool, sql.DB, and sqlx.DB.
// Each adapter exposes the same DBAdapter interface, including transactions,
// so the store builds its SQL once and runs it through whichever client the application already owns.
package adapters

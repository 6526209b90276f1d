package postgresengine

import (
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithSchemaName sets the Postgres schema that holds the tables. The default is "public".
func WithSchemaName(schemaName string) Option {
	return func(s *Store) error {
		if schemaName == "" {
			return shell.ErrEmptySchemaName
		}

		s.schemaName = schemaName

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: concurrency conflicts and rejected inserts (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger shell.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

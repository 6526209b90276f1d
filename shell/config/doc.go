// Package config provides configuration helpers for the loan ledger:
// PostgreSQL connection factories for the different drivers (pgx.Pool, sql.DB, sqlx.DB),
// the lending policy loaded from YAML, and OpenTelemetry provider setup.
//
// This package is part of the shell (infrastructure) layer.
package config

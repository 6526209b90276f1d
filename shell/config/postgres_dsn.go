package config

import "os"

const (
	// DSNEnvVar names the environment variable holding the PostgreSQL DSN.
	DSNEnvVar = "LOANLEDGER_DSN"

	// TestDSNEnvVar names the environment variable holding the DSN of the integration test database.
	TestDSNEnvVar = "LOANLEDGER_TEST_DSN"
)

// PostgresDSN returns the DSN from the environment, or "" if none is configured.
func PostgresDSN() string {
	return os.Getenv(DSNEnvVar)
}

// PostgresTestDSN returns the DSN of the integration test database, or "" if none is configured.
func PostgresTestDSN() string {
	return os.Getenv(TestDSNEnvVar)
}

// Package postgreswrapper provides test utilities for abstracting over different PostgreSQL database adapters.
//
// The same integration tests run against pgx, sql.DB and sqlx.DB through a common Wrapper interface.
// The adapter is chosen by the ADAPTER_TYPE environment variable, the database by LOANLEDGER_TEST_DSN.
// Without a test DSN the tests that need a database are skipped.
//
// Usage:
//
//	wrapper := CreateWrapperWithTestConfig(t)
//	defer wrapper.Close()
//
//	CleanUp(t, wrapper)
//
//	store := wrapper.GetStore()
package postgreswrapper

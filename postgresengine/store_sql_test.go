package postgresengine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

func givenStore(t *testing.T, options ...Option) Store {
	t.Helper()

	store, err := newStore(nil, options...)
	require.NoError(t, err)

	return store
}

func Test_Store_Defaults_To_The_Public_Schema(t *testing.T) {
	// act
	store := givenStore(t)

	// assert
	assert.Equal(t, "public", store.SchemaName())
}

func Test_WithSchemaName_Rejects_An_Empty_Name(t *testing.T) {
	// act
	_, err := newStore(nil, WithSchemaName(""))

	// assert
	assert.ErrorIs(t, err, shell.ErrEmptySchemaName)
}

func Test_Constructors_Reject_Nil_Connections(t *testing.T) {
	_, pgxErr := NewStoreFromPGXPool(nil)
	_, sqlErr := NewStoreFromSQLDB(nil)
	_, sqlxErr := NewStoreFromSQLX(nil)

	assert.ErrorIs(t, pgxErr, shell.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlErr, shell.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlxErr, shell.ErrNilDatabaseConnection)
}

func Test_Schema_Quotes_The_Schema_Name_And_Guards_Active_Loans(t *testing.T) {
	// act
	ddl := Schema("circulation")

	// assert
	assert.Contains(t, ddl, `CREATE SCHEMA IF NOT EXISTS "circulation"`)
	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "circulation".books`)
	assert.Contains(t, ddl, "loans_one_active_per_borrower")
	assert.Contains(t, ddl, "WHERE return_date IS NULL")
	assert.Contains(t, ddl, "available_copies >= 0 AND available_copies <= total_copies")
}

func Test_UpdateInventoryQuery_Is_Guarded_By_The_Loaded_Version(t *testing.T) {
	// arrange
	store := givenStore(t, WithSchemaName("circulation"))
	book := core.Book{ISBN: "978-0-13-468599-1", Title: "The Go Programming Language", TotalCopies: 3, AvailableCopies: 2, Version: 7}

	// act
	sqlQuery, err := store.toSQL(store.buildUpdateInventoryQuery(book))

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `UPDATE "circulation"."books"`)
	assert.Contains(t, sqlQuery, `"available_copies"=2`)
	assert.Contains(t, sqlQuery, `"version"=version + 1`)
	assert.Contains(t, sqlQuery, `("isbn" = '978-0-13-468599-1')`)
	assert.Contains(t, sqlQuery, `("version" = 7)`)
}

func Test_ReturnLoanQuery_Only_Touches_Active_Loans(t *testing.T) {
	// arrange
	store := givenStore(t)
	loan := core.Loan{
		ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		ISBN:       "978-0-13-468599-1",
		ReturnDate: core.ToDate(mustDate(t, "2024-03-20")),
		ReturnedTo: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Version:    2,
	}

	// act
	sqlQuery, err := store.toSQL(store.buildReturnLoanQuery(loan))

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `"return_date"='2024-03-20'::date`)
	assert.Contains(t, sqlQuery, `"returned_to"='22222222-2222-2222-2222-222222222222'::uuid`)
	assert.Contains(t, sqlQuery, `("id" = '11111111-1111-1111-1111-111111111111'::uuid)`)
	assert.Contains(t, sqlQuery, `("version" = 2)`)
	assert.Contains(t, sqlQuery, `("return_date" IS NULL)`)
}

func Test_InsertFineQuery_Writes_The_Amount_As_Numeric(t *testing.T) {
	// arrange
	store := givenStore(t)
	fine := core.Fine{
		ID:          uuid.New(),
		LoanID:      uuid.New(),
		Amount:      decimal.RequireFromString("32.50"),
		OverdueDays: 13,
		Status:      core.FinePending,
		CreatedOn:   core.ToDate(mustDate(t, "2024-03-20")),
	}

	// act
	sqlQuery, err := store.buildInsertFineQuery(fine)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `INSERT INTO "public"."fines"`)
	assert.Contains(t, sqlQuery, `'32.5'::numeric`)
	assert.Contains(t, sqlQuery, `'PENDING'`)
	assert.Contains(t, sqlQuery, "NULL")
}

func Test_SettleFineQuery_Never_Overwrites_A_Settled_Fine(t *testing.T) {
	// arrange
	store := givenStore(t)
	fine := core.Fine{
		ID:            uuid.New(),
		Status:        core.FinePaid,
		PaymentDate:   core.ToDate(mustDate(t, "2024-03-21")),
		PaymentMethod: core.PaymentCash,
		Version:       1,
	}

	// act
	sqlQuery, err := store.toSQL(store.buildSettleFineQuery(fine))

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `"status"='PAID'`)
	assert.Contains(t, sqlQuery, `("status" = 'PENDING')`)
	assert.Contains(t, sqlQuery, `("version" = 1)`)
}

func Test_MapUniqueViolation(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{"book pkey via pgx", &pgconn.PgError{Code: "23505", ConstraintName: constraintBooksPKey}, shell.ErrBookAlreadyExists},
		{"active loan via pgx", &pgconn.PgError{Code: "23505", ConstraintName: constraintOneActiveLoan}, core.ErrDuplicateLoan},
		{"active loan via pq", &pq.Error{Code: "23505", Constraint: constraintOneActiveLoan}, core.ErrDuplicateLoan},
		{"loan pkey", &pq.Error{Code: "23505", Constraint: constraintLoansPKey}, shell.ErrConcurrencyConflict},
		{"fine per loan", &pgconn.PgError{Code: "23505", ConstraintName: constraintFinesLoanID}, shell.ErrConcurrencyConflict},
		{"unknown constraint", &pgconn.PgError{Code: "23505", ConstraintName: "other"}, shell.ErrSavingFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapUniqueViolation(tc.err), tc.expected)
		})
	}
}

func Test_ParseOptionalValues_Map_NULL_To_Zero_Values(t *testing.T) {
	date, dateErr := parseOptionalDate(nil)
	id, idErr := parseOptionalUUID(nil)

	assert.NoError(t, dateErr)
	assert.NoError(t, idErr)
	assert.True(t, date.IsZero())
	assert.Equal(t, uuid.Nil, id)
	assert.Nil(t, optionalUUIDValue(uuid.Nil))
	assert.Nil(t, optionalDateValue(core.Date{}))
	assert.Nil(t, optionalStringValue(""))
}

func mustDate(t *testing.T, value string) core.Date {
	t.Helper()

	date, err := parseDate(value)
	require.NoError(t, err)

	return date
}

package shell

import "errors"

var (
	// ErrConcurrencyConflict is returned when a record was changed by someone else between load and save.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	// ErrBookNotFound is returned when no book exists for the given ISBN.
	ErrBookNotFound = errors.New("book not found")

	// ErrLoanNotFound is returned when no loan exists for the given ID.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrFineNotFound is returned when no fine exists for the given ID or loan.
	ErrFineNotFound = errors.New("fine not found")

	// ErrBookAlreadyExists is returned when a book with the same ISBN is added twice.
	ErrBookAlreadyExists = errors.New("book already exists")

	// ErrNilDatabaseConnection is returned when a storage engine is constructed without a connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptySchemaName is returned when an empty schema name is configured.
	ErrEmptySchemaName = errors.New("empty schema name supplied")

	// ErrBuildingQueryFailed is returned when a SQL statement could not be built.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed is returned when a database read fails.
	ErrQueryingFailed = errors.New("querying records failed")

	// ErrScanningDBRowFailed is returned when a result row could not be scanned.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrLoanNotReturned is returned when a return is saved for a loan without a return date.
	ErrLoanNotReturned = errors.New("loan has no return date")

	// ErrSavingFailed is returned when a database write fails.
	ErrSavingFailed = errors.New("saving records failed")
)

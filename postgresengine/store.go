package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-loan-ledger/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	defaultSchemaName = "public"

	tableBooks         = "books"
	tableLoans         = "loans"
	tableFines         = "fines"
	tableAuditLog      = "audit_log"
	tableNotifications = "notifications"

	constraintBooksPKey     = "books_pkey"
	constraintLoansPKey     = "loans_pkey"
	constraintOneActiveLoan = "loans_one_active_per_borrower"
	constraintFinesPKey     = "fines_pkey"
	constraintFinesLoanID   = "fines_loan_id_key"

	dialectPostgres = "postgres"
	dateLayout      = "2006-01-02"
	sqlDateFormat   = "YYYY-MM-DD"
	castUUID        = "?::uuid"
	castDate        = "?::date"
	castNumeric     = "?::numeric"
	castJsonb       = "?::jsonb"
	castTimestamp   = "?::timestamp with time zone"
	bumpVersion     = "version + 1"

	logMsgBuildQueryFailed    = "failed to build sql statement"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgBeginTxFailed       = "failed to begin transaction"
	logMsgCommitTxFailed      = "failed to commit transaction"
	logMsgRollbackTxFailed    = "failed to roll back transaction"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgUniqueViolation     = "unique constraint violated"
	logMsgMigrationFailed     = "schema migration failed"
	logMsgMigrated            = "schema migrated"
	logMsgSQLExecuted         = "executed sql for: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrDurationMS         = "duration_ms"
	logAttrTable              = "table"
	logAttrConstraint         = "constraint"
	logAttrSchema             = "schema"
)

type sqlQueryString = string

// sqlBuilder is satisfied by all goqu datasets.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// Store persists the loan lifecycle records in PostgreSQL.
type Store struct {
	db         adapters.DBAdapter
	schemaName string
	logger     shell.Logger
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, shell.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, shell.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, shell.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	s := Store{
		db:         db,
		schemaName: defaultSchemaName,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

// SchemaName returns the Postgres schema the Store works in.
func (s Store) SchemaName() string {
	return s.schemaName
}

func (s Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (s Store) table(name string) exp.IdentifierExpression {
	return goqu.S(s.schemaName).Table(name)
}

func (s Store) toSQL(statement sqlBuilder) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := statement.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		}

		return "", errors.Join(shell.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// queryRows runs sqlQuery and hands every row to scan.
func (s Store) queryRows(
	ctx context.Context,
	querier adapters.Querier,
	sqlQuery sqlQueryString,
	scan func(rows adapters.DBRows) error,
) error {

	start := time.Now()
	rows, queryErr := querier.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, "query", time.Since(start))

	if queryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return errors.Join(shell.ErrQueryingFailed, queryErr)
	}
	defer s.closeRows(rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			if s.logger != nil {
				s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return errors.Join(shell.ErrScanningDBRowFailed, scanErr)
		}
	}

	if iterErr := rows.Err(); iterErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBQueryFailed, logAttrError, iterErr.Error(), logAttrQuery, sqlQuery)
		}

		return errors.Join(shell.ErrQueryingFailed, iterErr)
	}

	return nil
}

// execStatement runs sqlQuery and returns the number of affected rows.
// Unique violations are returned unwrapped so that callers can map them with adapters.IsUniqueViolation.
func (s Store) execStatement(
	ctx context.Context,
	querier adapters.Querier,
	sqlQuery sqlQueryString,
	table string,
) (int64, error) {

	start := time.Now()
	result, execErr := querier.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, table, time.Since(start))

	if execErr != nil {
		if constraint, ok := adapters.IsUniqueViolation(execErr); ok {
			if s.logger != nil {
				s.logger.Info(logMsgUniqueViolation, logAttrTable, table, logAttrConstraint, constraint)
			}

			return 0, execErr
		}

		if s.logger != nil {
			s.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, errors.Join(shell.ErrSavingFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgRowsAffectedFailed, logAttrError, rowsAffectedErr.Error())
		}

		return 0, errors.Join(shell.ErrSavingFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// execVersionedUpdate runs an update guarded by a version predicate, no affected row means someone else won.
func (s Store) execVersionedUpdate(
	ctx context.Context,
	querier adapters.Querier,
	statement *goqu.UpdateDataset,
	table string,
) error {

	sqlQuery, buildErr := s.toSQL(statement)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execStatement(ctx, querier, sqlQuery, table)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		if s.logger != nil {
			s.logger.Info(logMsgConcurrencyConflict, logAttrTable, table)
		}

		return shell.ErrConcurrencyConflict
	}

	return nil
}

// inTransaction runs fn in one transaction, which is committed if fn returns nil and rolled back otherwise.
func (s Store) inTransaction(ctx context.Context, fn func(tx adapters.DBTx) error) error {
	tx, beginErr := s.db.Begin(ctx)
	if beginErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBeginTxFailed, logAttrError, beginErr.Error())
		}

		return errors.Join(shell.ErrSavingFailed, beginErr)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && s.logger != nil {
			s.logger.Warn(logMsgRollbackTxFailed, logAttrError, rollbackErr.Error())
		}

		return err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgCommitTxFailed, logAttrError, commitErr.Error())
		}

		return errors.Join(shell.ErrSavingFailed, commitErr)
	}

	return nil
}

// closeRows safely closes database rows and logs any errors.
func (s Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL statements at debug level with execution time.
func (s Store) logQueryWithDuration(sqlQuery sqlQueryString, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, shell.ToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

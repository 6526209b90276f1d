package postgresengine

import (
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

// UUIDs, dates and amounts travel as text in both directions,
// so pgx and database/sql scan them into the same Go types.

func uuidValue(id uuid.UUID) exp.LiteralExpression {
	return goqu.L(castUUID, id.String())
}

func optionalUUIDValue(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}

	return uuidValue(id)
}

func dateValue(date core.Date) exp.LiteralExpression {
	return goqu.L(castDate, core.ToDate(date).Format(dateLayout))
}

func optionalDateValue(date core.Date) any {
	if date.IsZero() {
		return nil
	}

	return dateValue(date)
}

func optionalStringValue(value string) any {
	if value == "" {
		return nil
	}

	return value
}

func asText(column string) exp.CastExpression {
	return goqu.Cast(goqu.C(column), "TEXT")
}

func asDateText(column string) exp.SQLFunctionExpression {
	return goqu.Func("to_char", goqu.C(column), sqlDateFormat)
}

func parseDate(value string) (core.Date, error) {
	return time.Parse(dateLayout, value)
}

func parseOptionalDate(value *string) (core.Date, error) {
	if value == nil {
		return core.Date{}, nil
	}

	return parseDate(*value)
}

func parseOptionalUUID(value *string) (uuid.UUID, error) {
	if value == nil {
		return uuid.Nil, nil
	}

	return uuid.Parse(*value)
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}

// mapUniqueViolation translates violated constraints into the errors callers act on.
// A clash on a primary key means a concurrent writer inserted the same record first.
func mapUniqueViolation(err error) error {
	constraint, ok := adapters.IsUniqueViolation(err)
	if !ok {
		return err
	}

	switch constraint {
	case constraintBooksPKey:
		return shell.ErrBookAlreadyExists
	case constraintOneActiveLoan:
		return core.ErrDuplicateLoan
	case constraintLoansPKey, constraintFinesPKey, constraintFinesLoanID:
		return shell.ErrConcurrencyConflict
	default:
		return errors.Join(shell.ErrSavingFailed, err)
	}
}

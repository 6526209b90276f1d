package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	colLoanID           = "loan_id"
	colAmount           = "amount"
	colOverdueDays      = "overdue_days"
	colStatus           = "status"
	colCreatedOn        = "created_on"
	colPaymentDate      = "payment_date"
	colPaymentMethod    = "payment_method"
	colPaymentReference = "payment_reference"
	colWaivedBy         = "waived_by"
	colWaiveReason      = "waive_reason"
)

type fineRow struct {
	id               string
	loanID           string
	amount           string
	overdueDays      int
	status           string
	createdOn        string
	paymentDate      *string
	paymentMethod    *string
	paymentReference *string
	waivedBy         *string
	waiveReason      *string
	version          uint
}

func (s Store) selectFines() *goqu.SelectDataset {
	return s.builder().
		From(s.table(tableFines)).
		Select(
			asText(colID),
			asText(colLoanID),
			asText(colAmount),
			colOverdueDays,
			colStatus,
			asDateText(colCreatedOn),
			asDateText(colPaymentDate),
			colPaymentMethod,
			colPaymentReference,
			asText(colWaivedBy),
			colWaiveReason,
			colVersion,
		)
}

func scanFine(rows adapters.DBRows) (core.Fine, error) {
	var row fineRow

	scanErr := rows.Scan(
		&row.id,
		&row.loanID,
		&row.amount,
		&row.overdueDays,
		&row.status,
		&row.createdOn,
		&row.paymentDate,
		&row.paymentMethod,
		&row.paymentReference,
		&row.waivedBy,
		&row.waiveReason,
		&row.version,
	)
	if scanErr != nil {
		return core.Fine{}, scanErr
	}

	return row.toFine()
}

func (row fineRow) toFine() (core.Fine, error) {
	id, idErr := uuid.Parse(row.id)
	loanID, loanIDErr := uuid.Parse(row.loanID)
	amount, amountErr := decimal.NewFromString(row.amount)
	createdOn, createdErr := parseDate(row.createdOn)
	paymentDate, paymentErr := parseOptionalDate(row.paymentDate)
	waivedBy, waivedByErr := parseOptionalUUID(row.waivedBy)

	if err := errors.Join(idErr, loanIDErr, amountErr, createdErr, paymentErr, waivedByErr); err != nil {
		return core.Fine{}, err
	}

	return core.Fine{
		ID:               id,
		LoanID:           loanID,
		Amount:           amount,
		OverdueDays:      row.overdueDays,
		Status:           core.FineStatus(row.status),
		CreatedOn:        createdOn,
		PaymentDate:      paymentDate,
		PaymentMethod:    core.PaymentMethod(stringOrEmpty(row.paymentMethod)),
		PaymentReference: stringOrEmpty(row.paymentReference),
		WaivedBy:         waivedBy,
		WaiveReason:      stringOrEmpty(row.waiveReason),
		Version:          row.version,
	}, nil
}

func (s Store) loadFine(ctx context.Context, selectStmt *goqu.SelectDataset) (core.Fine, error) {
	sqlQuery, buildErr := s.toSQL(selectStmt)
	if buildErr != nil {
		return core.Fine{}, buildErr
	}

	var fine core.Fine
	found := false

	queryErr := s.queryRows(ctx, s.db, sqlQuery, func(rows adapters.DBRows) error {
		scanned, err := scanFine(rows)
		if err != nil {
			return err
		}

		fine = scanned
		found = true

		return nil
	})
	if queryErr != nil {
		return core.Fine{}, queryErr
	}

	if !found {
		return core.Fine{}, shell.ErrFineNotFound
	}

	return fine, nil
}

// LoadFine reads the fine with the given ID or fails with shell.ErrFineNotFound.
func (s Store) LoadFine(ctx context.Context, fineID core.FineID) (core.Fine, error) {
	return s.loadFine(ctx, s.selectFines().Where(goqu.C(colID).Eq(uuidValue(fineID))))
}

// LoadFineOfLoan reads the fine of the given loan or fails with shell.ErrFineNotFound.
func (s Store) LoadFineOfLoan(ctx context.Context, loanID core.LoanID) (core.Fine, error) {
	return s.loadFine(ctx, s.selectFines().Where(goqu.C(colLoanID).Eq(uuidValue(loanID))))
}

// SaveFine stores the settlement of a fine that was loaded with fine.Version.
// Only PENDING rows are updated, so a settled fine is never overwritten.
func (s Store) SaveFine(ctx context.Context, fine core.Fine) error {
	return s.inTransaction(ctx, func(tx adapters.DBTx) error {
		return s.execVersionedUpdate(ctx, tx, s.buildSettleFineQuery(fine), tableFines)
	})
}

func (s Store) buildInsertFineQuery(fine core.Fine) (sqlQueryString, error) {
	return s.toSQL(
		s.builder().
			Insert(s.table(tableFines)).
			Rows(goqu.Record{
				colID:               uuidValue(fine.ID),
				colLoanID:           uuidValue(fine.LoanID),
				colAmount:           goqu.L(castNumeric, fine.Amount.String()),
				colOverdueDays:      fine.OverdueDays,
				colStatus:           string(fine.Status),
				colCreatedOn:        dateValue(fine.CreatedOn),
				colPaymentDate:      optionalDateValue(fine.PaymentDate),
				colPaymentMethod:    optionalStringValue(string(fine.PaymentMethod)),
				colPaymentReference: optionalStringValue(fine.PaymentReference),
				colWaivedBy:         optionalUUIDValue(fine.WaivedBy),
				colWaiveReason:      optionalStringValue(fine.WaiveReason),
				colVersion:          1,
			}),
	)
}

func (s Store) buildSettleFineQuery(fine core.Fine) *goqu.UpdateDataset {
	return s.builder().
		Update(s.table(tableFines)).
		Set(goqu.Record{
			colStatus:           string(fine.Status),
			colPaymentDate:      optionalDateValue(fine.PaymentDate),
			colPaymentMethod:    optionalStringValue(string(fine.PaymentMethod)),
			colPaymentReference: optionalStringValue(fine.PaymentReference),
			colWaivedBy:         optionalUUIDValue(fine.WaivedBy),
			colWaiveReason:      optionalStringValue(fine.WaiveReason),
			colVersion:          goqu.L(bumpVersion),
		}).
		Where(
			goqu.C(colID).Eq(uuidValue(fine.ID)),
			goqu.C(colVersion).Eq(fine.Version),
			goqu.C(colStatus).Eq(string(core.FinePending)),
		)
}

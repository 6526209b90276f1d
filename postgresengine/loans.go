package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	colID           = "id"
	colBorrowerID   = "borrower_id"
	colIssueDate    = "issue_date"
	colDueDate      = "due_date"
	colReturnDate   = "return_date"
	colRenewalCount = "renewal_count"
	colMaxRenewals  = "max_renewals"
	colIssuedBy     = "issued_by"
	colReturnedTo   = "returned_to"
)

type loanRow struct {
	id           string
	isbn         string
	borrowerID   string
	issueDate    string
	dueDate      string
	returnDate   *string
	renewalCount int
	maxRenewals  int
	issuedBy     *string
	returnedTo   *string
	version      uint
}

func (s Store) selectLoans() *goqu.SelectDataset {
	return s.builder().
		From(s.table(tableLoans)).
		Select(
			asText(colID),
			colISBN,
			asText(colBorrowerID),
			asDateText(colIssueDate),
			asDateText(colDueDate),
			asDateText(colReturnDate),
			colRenewalCount,
			colMaxRenewals,
			asText(colIssuedBy),
			asText(colReturnedTo),
			colVersion,
		)
}

func scanLoan(rows adapters.DBRows) (core.Loan, error) {
	var row loanRow

	scanErr := rows.Scan(
		&row.id,
		&row.isbn,
		&row.borrowerID,
		&row.issueDate,
		&row.dueDate,
		&row.returnDate,
		&row.renewalCount,
		&row.maxRenewals,
		&row.issuedBy,
		&row.returnedTo,
		&row.version,
	)
	if scanErr != nil {
		return core.Loan{}, scanErr
	}

	return row.toLoan()
}

func (row loanRow) toLoan() (core.Loan, error) {
	id, idErr := uuid.Parse(row.id)
	borrowerID, borrowerErr := uuid.Parse(row.borrowerID)
	issueDate, issueErr := parseDate(row.issueDate)
	dueDate, dueErr := parseDate(row.dueDate)
	returnDate, returnErr := parseOptionalDate(row.returnDate)
	issuedBy, issuedByErr := parseOptionalUUID(row.issuedBy)
	returnedTo, returnedToErr := parseOptionalUUID(row.returnedTo)

	if err := errors.Join(idErr, borrowerErr, issueErr, dueErr, returnErr, issuedByErr, returnedToErr); err != nil {
		return core.Loan{}, err
	}

	return core.Loan{
		ID:           id,
		ISBN:         row.isbn,
		BorrowerID:   borrowerID,
		IssueDate:    issueDate,
		DueDate:      dueDate,
		ReturnDate:   returnDate,
		RenewalCount: row.renewalCount,
		MaxRenewals:  row.maxRenewals,
		IssuedBy:     issuedBy,
		ReturnedTo:   returnedTo,
		Version:      row.version,
	}, nil
}

func (s Store) loadLoans(ctx context.Context, selectStmt *goqu.SelectDataset) (core.Loans, error) {
	sqlQuery, buildErr := s.toSQL(selectStmt)
	if buildErr != nil {
		return nil, buildErr
	}

	loans := make(core.Loans, 0)

	queryErr := s.queryRows(ctx, s.db, sqlQuery, func(rows adapters.DBRows) error {
		loan, err := scanLoan(rows)
		if err != nil {
			return err
		}

		loans = append(loans, loan)

		return nil
	})
	if queryErr != nil {
		return nil, queryErr
	}

	return loans, nil
}

// LoadLoan reads the loan with the given ID or fails with shell.ErrLoanNotFound.
func (s Store) LoadLoan(ctx context.Context, loanID core.LoanID) (core.Loan, error) {
	loans, err := s.loadLoans(ctx, s.selectLoans().Where(goqu.C(colID).Eq(uuidValue(loanID))))
	if err != nil {
		return core.Loan{}, err
	}

	if len(loans) == 0 {
		return core.Loan{}, shell.ErrLoanNotFound
	}

	return loans[0], nil
}

// LoadActiveLoansOf reads the loans the borrower has not returned yet, oldest first.
func (s Store) LoadActiveLoansOf(ctx context.Context, borrowerID core.BorrowerID) (core.Loans, error) {
	return s.loadLoans(ctx, s.selectLoans().
		Where(
			goqu.C(colBorrowerID).Eq(uuidValue(borrowerID)),
			goqu.C(colReturnDate).IsNull(),
		).
		Order(goqu.C(colIssueDate).Asc(), goqu.C(colID).Asc()),
	)
}

// LoadActiveLoans reads all loans that are not returned yet, ordered by due date.
func (s Store) LoadActiveLoans(ctx context.Context) (core.Loans, error) {
	return s.loadLoans(ctx, s.selectLoans().
		Where(goqu.C(colReturnDate).IsNull()).
		Order(goqu.C(colDueDate).Asc(), goqu.C(colID).Asc()),
	)
}

// SaveIssue stores a freshly issued loan together with the decremented inventory of its book.
//
// The book must carry the version it was loaded with. It fails with shell.ErrConcurrencyConflict
// if the book changed in the meantime, and with core.ErrDuplicateLoan if the borrower already
// holds an active loan of the same book.
func (s Store) SaveIssue(ctx context.Context, book core.Book, loan core.Loan) error {
	if book.ISBN != loan.ISBN {
		return core.ErrBookMismatch
	}

	insertLoanQuery, buildErr := s.buildInsertLoanQuery(loan)
	if buildErr != nil {
		return buildErr
	}

	return s.inTransaction(ctx, func(tx adapters.DBTx) error {
		if err := s.saveInventory(ctx, tx, book); err != nil {
			return err
		}

		if _, err := s.execStatement(ctx, tx, insertLoanQuery, tableLoans); err != nil {
			return mapUniqueViolation(err)
		}

		return nil
	})
}

// SaveRenewal stores the new due date and renewal count of a loan loaded with loan.Version.
func (s Store) SaveRenewal(ctx context.Context, loan core.Loan) error {
	return s.inTransaction(ctx, func(tx adapters.DBTx) error {
		return s.execVersionedUpdate(ctx, tx, s.buildRenewLoanQuery(loan), tableLoans)
	})
}

// SaveReturn stores a returned loan, the incremented inventory of its book and, if the return was late, the new fine.
func (s Store) SaveReturn(ctx context.Context, book core.Book, loan core.Loan, fine *core.Fine) error {
	if book.ISBN != loan.ISBN {
		return core.ErrBookMismatch
	}

	if !loan.IsReturned() {
		return shell.ErrLoanNotReturned
	}

	var insertFineQuery sqlQueryString
	if fine != nil {
		query, buildErr := s.buildInsertFineQuery(*fine)
		if buildErr != nil {
			return buildErr
		}

		insertFineQuery = query
	}

	return s.inTransaction(ctx, func(tx adapters.DBTx) error {
		if err := s.saveInventory(ctx, tx, book); err != nil {
			return err
		}

		if err := s.execVersionedUpdate(ctx, tx, s.buildReturnLoanQuery(loan), tableLoans); err != nil {
			return err
		}

		if insertFineQuery == "" {
			return nil
		}

		if _, err := s.execStatement(ctx, tx, insertFineQuery, tableFines); err != nil {
			return mapUniqueViolation(err)
		}

		return nil
	})
}

func (s Store) buildInsertLoanQuery(loan core.Loan) (sqlQueryString, error) {
	return s.toSQL(
		s.builder().
			Insert(s.table(tableLoans)).
			Rows(goqu.Record{
				colID:           uuidValue(loan.ID),
				colISBN:         loan.ISBN,
				colBorrowerID:   uuidValue(loan.BorrowerID),
				colIssueDate:    dateValue(loan.IssueDate),
				colDueDate:      dateValue(loan.DueDate),
				colReturnDate:   optionalDateValue(loan.ReturnDate),
				colRenewalCount: loan.RenewalCount,
				colMaxRenewals:  loan.MaxRenewals,
				colIssuedBy:     optionalUUIDValue(loan.IssuedBy),
				colReturnedTo:   optionalUUIDValue(loan.ReturnedTo),
				colVersion:      1,
			}),
	)
}

func (s Store) buildRenewLoanQuery(loan core.Loan) *goqu.UpdateDataset {
	return s.builder().
		Update(s.table(tableLoans)).
		Set(goqu.Record{
			colDueDate:      dateValue(loan.DueDate),
			colRenewalCount: loan.RenewalCount,
			colVersion:      goqu.L(bumpVersion),
		}).
		Where(
			goqu.C(colID).Eq(uuidValue(loan.ID)),
			goqu.C(colVersion).Eq(loan.Version),
			goqu.C(colReturnDate).IsNull(),
		)
}

func (s Store) buildReturnLoanQuery(loan core.Loan) *goqu.UpdateDataset {
	return s.builder().
		Update(s.table(tableLoans)).
		Set(goqu.Record{
			colReturnDate: dateValue(loan.ReturnDate),
			colReturnedTo: optionalUUIDValue(loan.ReturnedTo),
			colVersion:    goqu.L(bumpVersion),
		}).
		Where(
			goqu.C(colID).Eq(uuidValue(loan.ID)),
			goqu.C(colVersion).Eq(loan.Version),
			goqu.C(colReturnDate).IsNull(),
		)
}

package memoryengine

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logAttrRecord             = "record"
	logAttrExpectedVersion    = "expected_version"
	logAttrActualVersion      = "actual_version"
)

type activeLoanKey struct {
	isbn       core.ISBNString
	borrowerID core.BorrowerID
}

// Store is a mutex guarded in-memory store. The zero value is not usable, use NewStore.
type Store struct {
	mu            sync.RWMutex
	books         map[core.ISBNString]core.Book
	loans         map[core.LoanID]core.Loan
	activeLoans   map[activeLoanKey]core.LoanID
	fines         map[core.FineID]core.Fine
	fineOfLoan    map[core.LoanID]core.FineID
	notifications []core.Notification
	auditTrail    []shell.AuditRecord
	logger        shell.Logger
}

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithLogger sets the logger that reports concurrency conflicts.
func WithLogger(logger shell.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStore creates an empty Store.
func NewStore(options ...Option) (*Store, error) {
	s := &Store{
		books:       make(map[core.ISBNString]core.Book),
		loans:       make(map[core.LoanID]core.Loan),
		activeLoans: make(map[activeLoanKey]core.LoanID),
		fines:       make(map[core.FineID]core.Fine),
		fineOfLoan:  make(map[core.LoanID]core.FineID),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// AddBook inserts a new book with version 1.
func (s *Store) AddBook(_ context.Context, book core.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ISBN]; ok {
		return shell.ErrBookAlreadyExists
	}

	book.Version = 1
	s.books[book.ISBN] = book

	return nil
}

// LoadBook returns the book with the given ISBN or shell.ErrBookNotFound.
func (s *Store) LoadBook(ctx context.Context, isbn core.ISBNString) (core.Book, error) {
	if err := ctx.Err(); err != nil {
		return core.Book{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[isbn]
	if !ok {
		return core.Book{}, shell.ErrBookNotFound
	}

	return book, nil
}

// LoadLoan returns the loan with the given ID or shell.ErrLoanNotFound.
func (s *Store) LoadLoan(ctx context.Context, loanID core.LoanID) (core.Loan, error) {
	if err := ctx.Err(); err != nil {
		return core.Loan{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[loanID]
	if !ok {
		return core.Loan{}, shell.ErrLoanNotFound
	}

	return loan, nil
}

// LoadActiveLoansOf returns the borrower's loans that are not returned yet, oldest first.
func (s *Store) LoadActiveLoansOf(ctx context.Context, borrowerID core.BorrowerID) (core.Loans, error) {
	return s.activeLoansWhere(ctx, func(loan core.Loan) bool {
		return loan.BorrowerID == borrowerID
	}, func(a, b core.Loan) int {
		return a.IssueDate.Compare(b.IssueDate)
	})
}

// LoadActiveLoans returns all loans that are not returned yet, ordered by due date.
func (s *Store) LoadActiveLoans(ctx context.Context) (core.Loans, error) {
	return s.activeLoansWhere(ctx, func(core.Loan) bool {
		return true
	}, func(a, b core.Loan) int {
		return a.DueDate.Compare(b.DueDate)
	})
}

func (s *Store) activeLoansWhere(
	ctx context.Context,
	matches func(core.Loan) bool,
	compare func(a, b core.Loan) int,
) (core.Loans, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make(core.Loans, 0)
	for _, loanID := range s.activeLoans {
		if loan := s.loans[loanID]; matches(loan) {
			loans = append(loans, loan)
		}
	}

	slices.SortFunc(loans, func(a, b core.Loan) int {
		if c := compare(a, b); c != 0 {
			return c
		}

		return slices.Compare(a.ID[:], b.ID[:])
	})

	return loans, nil
}

// LoadFine returns the fine with the given ID or shell.ErrFineNotFound.
func (s *Store) LoadFine(ctx context.Context, fineID core.FineID) (core.Fine, error) {
	if err := ctx.Err(); err != nil {
		return core.Fine{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fine, ok := s.fines[fineID]
	if !ok {
		return core.Fine{}, shell.ErrFineNotFound
	}

	return fine, nil
}

// LoadFineOfLoan returns the fine of the given loan or shell.ErrFineNotFound.
func (s *Store) LoadFineOfLoan(ctx context.Context, loanID core.LoanID) (core.Fine, error) {
	if err := ctx.Err(); err != nil {
		return core.Fine{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fineID, ok := s.fineOfLoan[loanID]
	if !ok {
		return core.Fine{}, shell.ErrFineNotFound
	}

	return s.fines[fineID], nil
}

// SaveIssue stores a new loan and the decremented inventory of its book in one step.
func (s *Store) SaveIssue(ctx context.Context, book core.Book, loan core.Loan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if book.ISBN != loan.ISBN {
		return core.ErrBookMismatch
	}

	if err := book.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBookVersion(book); err != nil {
		return err
	}

	if _, ok := s.loans[loan.ID]; ok {
		return shell.ErrConcurrencyConflict
	}

	key := activeLoanKey{isbn: loan.ISBN, borrowerID: loan.BorrowerID}
	if !loan.IsReturned() {
		if _, ok := s.activeLoans[key]; ok {
			return core.ErrDuplicateLoan
		}
	}

	book.Version++
	s.books[book.ISBN] = book

	loan.Version = 1
	s.loans[loan.ID] = loan
	if !loan.IsReturned() {
		s.activeLoans[key] = loan.ID
	}

	return nil
}

// SaveRenewal stores the new due date and renewal count of an active loan.
func (s *Store) SaveRenewal(ctx context.Context, loan core.Loan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.checkActiveLoanVersion(loan)
	if err != nil {
		return err
	}

	stored.DueDate = loan.DueDate
	stored.RenewalCount = loan.RenewalCount
	stored.Version++
	s.loans[stored.ID] = stored

	return nil
}

// SaveReturn stores a returned loan, the incremented inventory of its book and the optional fine in one step.
func (s *Store) SaveReturn(ctx context.Context, book core.Book, loan core.Loan, fine *core.Fine) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if book.ISBN != loan.ISBN {
		return core.ErrBookMismatch
	}

	if !loan.IsReturned() {
		return shell.ErrLoanNotReturned
	}

	if err := book.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBookVersion(book); err != nil {
		return err
	}

	stored, err := s.checkActiveLoanVersion(loan)
	if err != nil {
		return err
	}

	if fine != nil {
		if _, ok := s.fineOfLoan[fine.LoanID]; ok {
			return shell.ErrConcurrencyConflict
		}

		if _, ok := s.fines[fine.ID]; ok {
			return shell.ErrConcurrencyConflict
		}
	}

	book.Version++
	s.books[book.ISBN] = book

	stored.ReturnDate = loan.ReturnDate
	stored.ReturnedTo = loan.ReturnedTo
	stored.Version++
	s.loans[stored.ID] = stored
	delete(s.activeLoans, activeLoanKey{isbn: stored.ISBN, borrowerID: stored.BorrowerID})

	if fine != nil {
		created := *fine
		created.Version = 1
		s.fines[created.ID] = created
		s.fineOfLoan[created.LoanID] = created.ID
	}

	return nil
}

// SaveFine stores the settlement of a PENDING fine.
func (s *Store) SaveFine(ctx context.Context, fine core.Fine) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.fines[fine.ID]
	if !ok {
		return shell.ErrFineNotFound
	}

	if stored.Version != fine.Version || stored.IsSettled() {
		s.logConflict("fine", fine.Version, stored.Version)
		return shell.ErrConcurrencyConflict
	}

	stored.Status = fine.Status
	stored.PaymentDate = fine.PaymentDate
	stored.PaymentMethod = fine.PaymentMethod
	stored.PaymentReference = fine.PaymentReference
	stored.WaivedBy = fine.WaivedBy
	stored.WaiveReason = fine.WaiveReason
	stored.Version++
	s.fines[stored.ID] = stored

	return nil
}

// Notify appends a notification to the borrower's inbox.
func (s *Store) Notify(_ context.Context, notification core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, notification)

	return nil
}

// RecordAudit appends an entry to the audit log together with the AuditMetadata found in ctx.
func (s *Store) RecordAudit(ctx context.Context, entry core.AuditEntry) error {
	metadata, _ := shell.AuditMetadataFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditTrail = append(s.auditTrail, shell.AuditRecord{Entry: entry, Metadata: metadata})

	return nil
}

// LoadNotificationsOf returns the notifications of a borrower, oldest first.
func (s *Store) LoadNotificationsOf(_ context.Context, borrowerID core.BorrowerID) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifications := make([]core.Notification, 0)
	for _, notification := range s.notifications {
		if notification.BorrowerID == borrowerID {
			notifications = append(notifications, notification)
		}
	}

	return notifications, nil
}

// LoadAuditTrail returns the audit entries of one loan or fine in the order they were recorded.
func (s *Store) LoadAuditTrail(_ context.Context, entityID uuid.UUID) ([]shell.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]shell.AuditRecord, 0)
	for _, record := range s.auditTrail {
		if record.Entry.EntityID == entityID {
			records = append(records, record)
		}
	}

	return records, nil
}

func (s *Store) checkBookVersion(book core.Book) error {
	stored, ok := s.books[book.ISBN]
	if !ok {
		return shell.ErrBookNotFound
	}

	if stored.Version != book.Version {
		s.logConflict("book", book.Version, stored.Version)
		return shell.ErrConcurrencyConflict
	}

	return nil
}

func (s *Store) checkActiveLoanVersion(loan core.Loan) (core.Loan, error) {
	stored, ok := s.loans[loan.ID]
	if !ok {
		return core.Loan{}, shell.ErrLoanNotFound
	}

	if stored.Version != loan.Version || stored.IsReturned() {
		s.logConflict("loan", loan.Version, stored.Version)
		return core.Loan{}, shell.ErrConcurrencyConflict
	}

	return stored, nil
}

func (s *Store) logConflict(record string, expected uint, actual uint) {
	if s.logger != nil {
		s.logger.Info(
			logMsgConcurrencyConflict,
			logAttrRecord, record,
			logAttrExpectedVersion, expected,
			logAttrActualVersion, actual,
		)
	}
}

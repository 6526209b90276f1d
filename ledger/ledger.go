package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/fines"
	"github.com/AntonStoeckl/library-loan-ledger/internal/keylock"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	logMsgNotificationFailed = "sending notification failed"
	logMsgAuditFailed        = "recording loan audit entry failed"
	logAttrLoanID            = "loan_id"
	logAttrBorrowerID        = "borrower_id"
	logAttrAction            = "action"
	logAttrNotificationType  = "notification_type"

	dateLayout = "2006-01-02"
)

// Ledger performs the loan lifecycle transitions.
type Ledger struct {
	policy           core.Policy
	fineCalculator   *fines.Calculator
	notificationSink core.NotificationSink
	auditSink        core.AuditSink
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	clock            func() time.Time
	bookLocks        keylock.Locker
}

// IssueRequest holds what is needed to lend a book.
//
// Holdings are the borrower's current loans, they are checked for an active loan of the same book.
// A nil LoanID is generated, a zero IssueDate means today, and a zero LoanDays means the policy default.
type IssueRequest struct {
	LoanID     core.LoanID
	Book       *core.Book
	BorrowerID core.BorrowerID
	Holdings   core.Loans
	IssueDate  core.Date
	LoanDays   int
	Actor      core.Actor
}

// New creates a Ledger with the default policy unless options say otherwise.
func New(options ...Option) (*Ledger, error) {
	ledger := &Ledger{
		policy: core.DefaultPolicy(),
		clock:  time.Now,
	}

	for _, option := range options {
		if err := option(ledger); err != nil {
			return nil, err
		}
	}

	if ledger.fineCalculator == nil {
		calculator, err := fines.NewCalculator(
			fines.WithRatePerDay(ledger.policy.FinePerDay),
			fines.WithAuditSink(ledger.auditSink),
			fines.WithLogger(ledger.logger),
			fines.WithContextualLogger(ledger.contextualLogger),
			fines.WithClock(ledger.clock),
		)
		if err != nil {
			return nil, err
		}

		ledger.fineCalculator = calculator
	}

	return ledger, nil
}

// Policy returns the lending policy in use.
func (l *Ledger) Policy() core.Policy {
	return l.policy
}

// FineCalculator returns the calculator used to assess fines.
func (l *Ledger) FineCalculator() *fines.Calculator {
	return l.fineCalculator
}

// Issue lends a copy of the book to the borrower and decrements the available copies of the book in place.
//
// It fails with core.ErrUnavailable if no copy is available and with core.ErrDuplicateLoan
// if the holdings contain an active loan of the same book. Availability is checked first.
func (l *Ledger) Issue(ctx context.Context, request IssueRequest) (core.Loan, error) {
	book := request.Book
	if book == nil {
		return core.Loan{}, core.ErrNilRecord
	}

	loanDays := request.LoanDays
	if loanDays < 0 {
		return core.Loan{}, core.ErrInvalidLoanPeriod
	}

	if loanDays == 0 {
		loanDays = l.policy.LoanDays
	}

	issueDate := request.IssueDate
	if issueDate.IsZero() {
		issueDate = l.clock()
	}

	loanID := request.LoanID
	if loanID == uuid.Nil {
		loanID = uuid.New()
	}

	unlock := l.bookLocks.Lock(book.ISBN)

	if err := book.Validate(); err != nil {
		unlock()
		return core.Loan{}, err
	}

	if !book.IsAvailable() {
		unlock()
		return core.Loan{}, core.ErrUnavailable
	}

	for _, held := range request.Holdings {
		if held.IsActiveFor(book.ISBN, request.BorrowerID) {
			unlock()
			return core.Loan{}, core.ErrDuplicateLoan
		}
	}

	loan := core.Loan{
		ID:          loanID,
		ISBN:        book.ISBN,
		BorrowerID:  request.BorrowerID,
		IssueDate:   core.ToDate(issueDate),
		DueDate:     core.AddDays(issueDate, loanDays),
		MaxRenewals: l.policy.MaxRenewals,
		IssuedBy:    request.Actor.ID,
	}
	book.AvailableCopies--
	title := book.Title

	unlock()

	l.notify(ctx, core.BuildNotification(
		loan.BorrowerID,
		core.NotificationGeneral,
		"Book Issued",
		fmt.Sprintf("You have been issued %q. Due date: %s", title, loan.DueDate.Format(dateLayout)),
		loan.ID,
	))

	l.audit(ctx, request.Actor, core.AuditIssue, loan.ID, fmt.Sprintf(
		"Issued %q (%s) to borrower %s, due %s", title, loan.ISBN, loan.BorrowerID, loan.DueDate.Format(dateLayout),
	))

	return loan, nil
}

// Renew extends the due date of an active loan in place. A zero extensionDays means the policy default.
//
// Only the borrower or staff may renew (core.ErrRenewalNotPermitted). It fails with core.ErrAlreadyReturned
// for returned loans and with core.ErrRenewalLimit once the loan's maximum number of renewals is reached.
func (l *Ledger) Renew(ctx context.Context, loan *core.Loan, extensionDays int, actor core.Actor) (core.Loan, error) {
	if loan == nil {
		return core.Loan{}, core.ErrNilRecord
	}

	if extensionDays < 0 {
		return *loan, core.ErrInvalidLoanPeriod
	}

	if extensionDays == 0 {
		extensionDays = l.policy.RenewalDays
	}

	unlock := l.bookLocks.Lock(loan.ISBN)

	if !actor.MayRenew(*loan) {
		unlock()
		return *loan, core.ErrRenewalNotPermitted
	}

	if loan.IsReturned() {
		unlock()
		return *loan, core.ErrAlreadyReturned
	}

	if !loan.CanRenew() {
		unlock()
		return *loan, core.ErrRenewalLimit
	}

	loan.DueDate = core.AddDays(loan.DueDate, extensionDays)
	loan.RenewalCount++
	renewed := *loan

	unlock()

	l.audit(ctx, actor, core.AuditRenew, renewed.ID, fmt.Sprintf(
		"Renewed loan of %s until %s (renewal %d of %d)",
		renewed.ISBN, renewed.DueDate.Format(dateLayout), renewed.RenewalCount, renewed.MaxRenewals,
	))

	return renewed, nil
}

// Return closes an active loan as of returnDate and puts the copy back: loan and book are updated in place.
// If the loan was overdue on returnDate, a new PENDING fine is returned as well.
//
// It fails with core.ErrAlreadyReturned for a loan that was returned before, so a copy is never put back twice.
func (l *Ledger) Return(
	ctx context.Context,
	book *core.Book,
	loan *core.Loan,
	returnDate core.Date,
	actor core.Actor,
) (core.Loan, *core.Fine, error) {

	if book == nil || loan == nil {
		return core.Loan{}, nil, core.ErrNilRecord
	}

	if book.ISBN != loan.ISBN {
		return *loan, nil, core.ErrBookMismatch
	}

	unlock := l.bookLocks.Lock(book.ISBN)

	if loan.IsReturned() {
		unlock()
		return *loan, nil, core.ErrAlreadyReturned
	}

	if core.DaysBetween(loan.IssueDate, returnDate) < 0 {
		unlock()
		return *loan, nil, core.ErrReturnBeforeIssue
	}

	if book.AvailableCopies >= book.TotalCopies {
		unlock()
		return *loan, nil, core.ErrCopiesExceedTotal
	}

	loan.ReturnDate = core.ToDate(returnDate)
	loan.ReturnedTo = actor.ID
	book.AvailableCopies++
	returned := *loan
	title := book.Title

	var fine *core.Fine
	if assessed, overdue := l.fineCalculator.Assess(returned, returned.ReturnDate); overdue {
		fine = &assessed
	}

	unlock()

	description := fmt.Sprintf("Returned %q (%s) from borrower %s", title, returned.ISBN, returned.BorrowerID)
	if fine != nil {
		description += fmt.Sprintf(", %d days overdue, fine %s", fine.OverdueDays, fine.Amount.StringFixed(2))
	}

	l.audit(ctx, actor, core.AuditReturn, returned.ID, description)

	if fine != nil {
		l.notify(ctx, core.BuildNotification(
			returned.BorrowerID,
			core.NotificationFine,
			"Fine Issued",
			fmt.Sprintf(
				"A fine of %s has been issued for the late return of %q (%d days overdue).",
				fine.Amount.StringFixed(2), title, fine.OverdueDays,
			),
			returned.ID,
		))
	}

	return returned, fine, nil
}

func (l *Ledger) notify(ctx context.Context, notification core.Notification) {
	if l.notificationSink == nil {
		return
	}

	if err := l.notificationSink.Notify(ctx, notification); err != nil {
		shell.LogWarn(
			ctx, l.logger, l.contextualLogger, logMsgNotificationFailed,
			logAttrBorrowerID, notification.BorrowerID.String(),
			logAttrNotificationType, string(notification.Type),
			shell.LogAttrError, err.Error(),
		)
	}
}

func (l *Ledger) audit(ctx context.Context, actor core.Actor, action core.AuditAction, loanID core.LoanID, description string) {
	if l.auditSink == nil {
		return
	}

	entry := core.BuildAuditEntry(actor, action, core.EntityTypeLoan, loanID, description, l.clock())

	if err := l.auditSink.RecordAudit(ctx, entry); err != nil {
		shell.LogWarn(
			ctx, l.logger, l.contextualLogger, logMsgAuditFailed,
			logAttrLoanID, loanID.String(),
			logAttrAction, string(action),
			shell.LogAttrError, err.Error(),
		)
	}
}

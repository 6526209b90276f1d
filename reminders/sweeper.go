package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/fines"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	defaultDueSoonDays = 1

	logMsgSweepCompleted     = "reminder sweep completed"
	logMsgLoadingLoansFailed = "loading active loans for reminders failed"
	logMsgNotificationFailed = "sending reminder failed"
	logAttrLoanID            = "loan_id"
	logAttrOverdue           = "overdue"
	logAttrDueSoon           = "due_soon"
	logAttrFailed            = "failed"

	dateLayout = "2006-01-02"
)

var (
	// ErrNilNotificationSink is returned when a Sweeper is created without a sink.
	ErrNilNotificationSink = errors.New("notification sink must not be nil")

	// ErrNegativeDueSoonWindow is returned when a negative due-soon window is configured.
	ErrNegativeDueSoonWindow = errors.New("due soon window must not be negative")

	// ErrInvalidInterval is returned when Run is called with a non-positive interval.
	ErrInvalidInterval = errors.New("sweep interval must be positive")
)

// LoanSource provides the loans that are currently active.
type LoanSource interface {
	LoadActiveLoans(ctx context.Context) (core.Loans, error)
}

// BookSource resolves books for the notification texts.
type BookSource interface {
	LoadBook(ctx context.Context, isbn core.ISBNString) (core.Book, error)
}

// Report counts the notifications of one sweep.
type Report struct {
	Overdue int
	DueSoon int
	Failed  int
}

// Sweeper sends due-soon and overdue reminders.
type Sweeper struct {
	sink             core.NotificationSink
	books            BookSource
	calculator       *fines.Calculator
	dueSoonDays      int
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	clock            func() time.Time
}

// Option defines a functional option for configuring a Sweeper.
type Option func(*Sweeper) error

// NewSweeper creates a Sweeper that reminds borrowers one day before the due date.
func NewSweeper(sink core.NotificationSink, options ...Option) (*Sweeper, error) {
	if sink == nil {
		return nil, ErrNilNotificationSink
	}

	sweeper := &Sweeper{
		sink:        sink,
		dueSoonDays: defaultDueSoonDays,
		clock:       time.Now,
	}

	for _, option := range options {
		if err := option(sweeper); err != nil {
			return nil, err
		}
	}

	if sweeper.calculator == nil {
		calculator, err := fines.NewCalculator()
		if err != nil {
			return nil, err
		}

		sweeper.calculator = calculator
	}

	return sweeper, nil
}

// WithDueSoonWindow sets how many days ahead of the due date a DUE_SOON reminder is sent.
func WithDueSoonWindow(days int) Option {
	return func(s *Sweeper) error {
		if days < 0 {
			return ErrNegativeDueSoonWindow
		}

		s.dueSoonDays = days

		return nil
	}
}

// WithBookSource sets where book titles are looked up. Without one, the ISBN is used.
func WithBookSource(books BookSource) Option {
	return func(s *Sweeper) error {
		s.books = books
		return nil
	}
}

// WithFineCalculator sets the calculator for the provisional fine of overdue loans.
func WithFineCalculator(calculator *fines.Calculator) Option {
	return func(s *Sweeper) error {
		s.calculator = calculator
		return nil
	}
}

// WithLogger sets a basic logger.
func WithLogger(logger shell.Logger) Option {
	return func(s *Sweeper) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Sweeper) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithClock sets the source of "today" for Run.
func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) error {
		s.clock = clock
		return nil
	}
}

// Sweep sends the reminders for the given loans as of the given date. Returned loans are skipped.
// A failing notification is logged and counted, it does not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context, loans core.Loans, asOf core.Date) Report {
	report := Report{}

	for _, loan := range loans {
		if loan.IsReturned() {
			continue
		}

		notification, ok := s.reminderFor(ctx, loan, asOf)
		if !ok {
			continue
		}

		if err := s.sink.Notify(ctx, notification); err != nil {
			report.Failed++
			shell.LogWarn(
				ctx, s.logger, s.contextualLogger, logMsgNotificationFailed,
				logAttrLoanID, loan.ID.String(),
				shell.LogAttrError, err.Error(),
			)

			continue
		}

		switch notification.Type {
		case core.NotificationOverdue:
			report.Overdue++
		case core.NotificationDueSoon:
			report.DueSoon++
		}
	}

	shell.LogInfo(
		ctx, s.logger, s.contextualLogger, logMsgSweepCompleted,
		logAttrOverdue, report.Overdue,
		logAttrDueSoon, report.DueSoon,
		logAttrFailed, report.Failed,
	)

	return report
}

// Run sweeps the active loans of the source right away and then once per interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration, source LoanSource) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.sweepSource(ctx, source)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweepSource(ctx context.Context, source LoanSource) {
	loans, err := source.LoadActiveLoans(ctx)
	if err != nil {
		shell.LogError(ctx, s.logger, s.contextualLogger, logMsgLoadingLoansFailed, shell.LogAttrError, err.Error())
		return
	}

	s.Sweep(ctx, loans, core.ToDate(s.clock()))
}

func (s *Sweeper) reminderFor(ctx context.Context, loan core.Loan, asOf core.Date) (core.Notification, bool) {
	if fines.IsOverdue(loan.DueDate, asOf) {
		return core.BuildNotification(
			loan.BorrowerID,
			core.NotificationOverdue,
			"Book Overdue",
			fmt.Sprintf(
				"%q is %d days overdue. Provisional fine: %s. Please return it as soon as possible.",
				s.titleOf(ctx, loan.ISBN),
				fines.OverdueDays(loan.DueDate, asOf),
				s.calculator.Accrued(loan, asOf).StringFixed(2),
			),
			loan.ID,
		), true
	}

	if core.DaysBetween(asOf, loan.DueDate) <= s.dueSoonDays {
		return core.BuildNotification(
			loan.BorrowerID,
			core.NotificationDueSoon,
			"Book Due Soon",
			fmt.Sprintf("%q is due on %s.", s.titleOf(ctx, loan.ISBN), loan.DueDate.Format(dateLayout)),
			loan.ID,
		), true
	}

	return core.Notification{}, false
}

func (s *Sweeper) titleOf(ctx context.Context, isbn core.ISBNString) string {
	if s.books == nil {
		return isbn
	}

	book, err := s.books.LoadBook(ctx, isbn)
	if err != nil || book.Title == "" {
		return isbn
	}

	return book.Title
}

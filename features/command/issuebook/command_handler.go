package issuebook

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/ledger"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/shell/outbox"
)

// ErrLoanIDTaken is returned when the command's LoanID already belongs to a different loan.
var ErrLoanIDTaken = errors.New("loan id is already taken by another loan")

// Store defines the persistence operations needed by the CommandHandler.
type Store interface {
	LoadBook(ctx context.Context, isbn core.ISBNString) (core.Book, error)
	LoadLoan(ctx context.Context, loanID core.LoanID) (core.Loan, error)
	LoadActiveLoansOf(ctx context.Context, borrowerID core.BorrowerID) (core.Loans, error)
	SaveIssue(ctx context.Context, book core.Book, loan core.Loan) error
}

// CommandHandler orchestrates the command processing workflow with business logic and retry.
// It handles the Load -> Decide -> Save cycle, external wrappers handle all observability concerns.
type CommandHandler struct {
	store        Store
	ledger       *ledger.Ledger
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, loanLedger *ledger.Ledger, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:  store,
		ledger: loanLedger,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command with retry logic.
// Notifications and audit entries of an attempt are delivered only once that attempt is saved.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var isIdempotent bool

	ctx = shell.ContextWithCommandMetadata(ctx, command.CommandType())

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		attemptCtx, pending := outbox.Begin(retryCtx)

		idempotent, execErr := h.executeCommand(attemptCtx, command)
		isIdempotent = idempotent

		if execErr == nil {
			pending.Flush(retryCtx)
		}

		return execErr
	}, h.retryOptions...)

	if isIdempotent {
		return shell.NewIdempotentResult(retryMetrics), err
	}

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	// Replay phase
	existing, err := h.store.LoadLoan(ctx, command.LoanID)
	switch {
	case err == nil:
		if existing.ISBN == command.ISBN && existing.BorrowerID == command.BorrowerID {
			return true, nil
		}

		return false, ErrLoanIDTaken

	case !errors.Is(err, shell.ErrLoanNotFound):
		return false, err
	}

	// Load phase
	book, err := h.store.LoadBook(ctx, command.ISBN)
	if err != nil {
		return false, err
	}

	holdings, err := h.store.LoadActiveLoansOf(ctx, command.BorrowerID)
	if err != nil {
		return false, err
	}

	// Decide phase
	loan, err := h.ledger.Issue(ctx, ledger.IssueRequest{
		LoanID:     command.LoanID,
		Book:       &book,
		BorrowerID: command.BorrowerID,
		Holdings:   holdings,
		IssueDate:  command.IssueDate,
		LoanDays:   command.LoanDays,
		Actor:      command.Actor,
	})
	if err != nil {
		return false, err
	}

	// Save phase
	return false, h.store.SaveIssue(ctx, book, loan)
}

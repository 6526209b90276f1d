package returnbook

import (
	"context"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/ledger"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/shell/outbox"
)

// Store defines the persistence operations needed by the CommandHandler.
type Store interface {
	LoadLoan(ctx context.Context, loanID core.LoanID) (core.Loan, error)
	LoadBook(ctx context.Context, isbn core.ISBNString) (core.Book, error)
	SaveReturn(ctx context.Context, book core.Book, loan core.Loan, fine *core.Fine) error
}

// CommandHandler orchestrates the Load -> Decide -> Save cycle of a return with retry.
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
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	ctx = shell.ContextWithCommandMetadata(ctx, command.CommandType())

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		attemptCtx, pending := outbox.Begin(retryCtx)

		if execErr := h.executeCommand(attemptCtx, command); execErr != nil {
			return execErr
		}

		pending.Flush(retryCtx)

		return nil
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) error {
	// Load phase
	loan, err := h.store.LoadLoan(ctx, command.LoanID)
	if err != nil {
		return err
	}

	book, err := h.store.LoadBook(ctx, loan.ISBN)
	if err != nil {
		return err
	}

	// Decide phase
	returned, fine, err := h.ledger.Return(ctx, &book, &loan, command.ReturnDate, command.Actor)
	if err != nil {
		return err
	}

	// Save phase
	return h.store.SaveReturn(ctx, book, returned, fine)
}

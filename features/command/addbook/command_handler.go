package addbook

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

// Store defines the persistence operations needed by the CommandHandler.
type Store interface {
	AddBook(ctx context.Context, book core.Book) error
	LoadBook(ctx context.Context, isbn core.ISBNString) (core.Book, error)
}

// CommandHandler adds books to the catalog.
type CommandHandler struct {
	store        Store
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
func NewCommandHandler(store Store, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store: store,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command with retry logic.
// A book with the same ISBN, title and copy count yields an idempotent result,
// any other book with the same ISBN fails with shell.ErrBookAlreadyExists.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var idempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		idempotent, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	if idempotent {
		return shell.NewIdempotentResult(retryMetrics), nil
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	book := core.BuildBook(command.ISBN, command.Title, command.TotalCopies)

	err := h.store.AddBook(ctx, book)
	if !errors.Is(err, shell.ErrBookAlreadyExists) {
		return false, err
	}

	existing, loadErr := h.store.LoadBook(ctx, command.ISBN)
	if loadErr != nil {
		return false, loadErr
	}

	if existing.Title == book.Title && existing.TotalCopies == book.TotalCopies {
		return true, nil
	}

	return false, err
}

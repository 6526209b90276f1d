package waivefine

import (
	"context"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/fines"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/shell/outbox"
)

// Store defines the persistence operations needed by the CommandHandler.
type Store interface {
	LoadFine(ctx context.Context, fineID core.FineID) (core.Fine, error)
	SaveFine(ctx context.Context, fine core.Fine) error
}

// CommandHandler orchestrates the Load -> Decide -> Save cycle of a waiver with retry.
type CommandHandler struct {
	store        Store
	calculator   *fines.Calculator
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
func NewCommandHandler(store Store, calculator *fines.Calculator, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:      store,
		calculator: calculator,
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
	fine, err := h.store.LoadFine(ctx, command.FineID)
	if err != nil {
		return err
	}

	// Decide phase
	waived, err := h.calculator.Waive(ctx, &fine, fines.WaiveRequest{
		Reason: command.Reason,
		Actor:  command.Actor,
	})
	if err != nil {
		return err
	}

	// Save phase
	return h.store.SaveFine(ctx, waived)
}

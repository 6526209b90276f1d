package ledger

import (
	"time"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/fines"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

// Option defines a functional option for configuring a Ledger.
type Option func(*Ledger) error

// WithPolicy sets the lending policy. The fine rate of the policy is used unless WithFineCalculator is given.
func WithPolicy(policy core.Policy) Option {
	return func(l *Ledger) error {
		if err := policy.Validate(); err != nil {
			return err
		}

		l.policy = policy

		return nil
	}
}

// WithFineCalculator sets the calculator that assesses fines on return.
func WithFineCalculator(calculator *fines.Calculator) Option {
	return func(l *Ledger) error {
		l.fineCalculator = calculator
		return nil
	}
}

// WithNotificationSink sets the sink that receives the borrower notifications.
func WithNotificationSink(sink core.NotificationSink) Option {
	return func(l *Ledger) error {
		l.notificationSink = sink
		return nil
	}
}

// WithAuditSink sets the sink that receives an entry after every change.
func WithAuditSink(sink core.AuditSink) Option {
	return func(l *Ledger) error {
		l.auditSink = sink
		return nil
	}
}

// WithLogger sets a basic logger.
func WithLogger(logger shell.Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger, it takes precedence over the basic logger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(l *Ledger) error {
		l.contextualLogger = logger
		return nil
	}
}

// WithClock sets the source of the current time, used for audit timestamps and a missing issue date.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) error {
		l.clock = clock
		return nil
	}
}

package fines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/internal/keylock"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	logMsgAuditFailed = "recording fine audit entry failed"
	logAttrFineID     = "fine_id"
	logAttrAction     = "action"
)

// ErrNegativeRate is returned when a negative fine rate is configured.
var ErrNegativeRate = errors.New("fine rate per day must not be negative")

// SettleRequest holds what is needed to pay a fine. A zero PaidOn means today.
type SettleRequest struct {
	Method    core.PaymentMethod
	Reference string
	PaidOn    core.Date
	Actor     core.Actor
}

// WaiveRequest holds what is needed to waive a fine.
type WaiveRequest struct {
	Reason string
	Actor  core.Actor
}

// Calculator assesses, settles and waives fines.
type Calculator struct {
	ratePerDay       decimal.Decimal
	auditSink        core.AuditSink
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	clock            func() time.Time
	locks            keylock.Locker
}

// Option defines a functional option for configuring a Calculator.
type Option func(*Calculator) error

// NewCalculator creates a Calculator with the default rate of 10 per overdue day.
func NewCalculator(options ...Option) (*Calculator, error) {
	calculator := &Calculator{
		ratePerDay: decimal.NewFromInt(core.DefaultFinePerDay),
		clock:      time.Now,
	}

	for _, option := range options {
		if err := option(calculator); err != nil {
			return nil, err
		}
	}

	return calculator, nil
}

// WithRatePerDay sets the fine per overdue day.
func WithRatePerDay(rate decimal.Decimal) Option {
	return func(c *Calculator) error {
		if rate.IsNegative() {
			return ErrNegativeRate
		}

		c.ratePerDay = rate

		return nil
	}
}

// WithAuditSink sets the sink receiving a PAYMENT entry after each settlement or waiver.
func WithAuditSink(sink core.AuditSink) Option {
	return func(c *Calculator) error {
		c.auditSink = sink
		return nil
	}
}

// WithLogger sets a basic logger.
func WithLogger(logger shell.Logger) Option {
	return func(c *Calculator) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger, it takes precedence over the basic logger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(c *Calculator) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithClock sets the source of the current time, used for audit timestamps and default payment dates.
func WithClock(clock func() time.Time) Option {
	return func(c *Calculator) error {
		c.clock = clock
		return nil
	}
}

// RatePerDay returns the configured fine per overdue day.
func (c *Calculator) RatePerDay() decimal.Decimal {
	return c.ratePerDay
}

// Assess returns a new PENDING fine if the loan is overdue as of the given (return) date.
func (c *Calculator) Assess(loan core.Loan, asOf core.Date) (core.Fine, bool) {
	if !IsOverdue(loan.DueDate, asOf) {
		return core.Fine{}, false
	}

	overdueDays := OverdueDays(loan.DueDate, asOf)

	return core.Fine{
		ID:          uuid.New(),
		LoanID:      loan.ID,
		Amount:      Amount(overdueDays, c.ratePerDay),
		OverdueDays: overdueDays,
		Status:      core.FinePending,
		CreatedOn:   core.ToDate(asOf),
	}, true
}

// Accrued returns the fine an active loan would incur if it were returned on asOf. Returned loans accrue nothing.
func (c *Calculator) Accrued(loan core.Loan, asOf core.Date) decimal.Decimal {
	if loan.IsReturned() {
		return decimal.Zero
	}

	return Amount(OverdueDays(loan.DueDate, asOf), c.ratePerDay)
}

// Settle marks a PENDING fine as PAID. The fine is updated in place and returned.
// A fine that is not PENDING stays untouched and ErrAlreadySettled is returned.
func (c *Calculator) Settle(ctx context.Context, fine *core.Fine, request SettleRequest) (core.Fine, error) {
	if fine == nil {
		return core.Fine{}, core.ErrNilRecord
	}

	if !request.Method.IsKnown() {
		return *fine, core.ErrUnknownPaymentMethod
	}

	paidOn := request.PaidOn
	if paidOn.IsZero() {
		paidOn = c.clock()
	}

	unlock := c.locks.Lock(fine.ID.String())

	if fine.IsSettled() {
		unlock()
		return *fine, core.ErrAlreadySettled
	}

	fine.Status = core.FinePaid
	fine.PaymentDate = core.ToDate(paidOn)
	fine.PaymentMethod = request.Method
	fine.PaymentReference = request.Reference
	settled := *fine

	unlock()

	c.audit(ctx, request.Actor, settled, fmt.Sprintf(
		"Fine of %s for %d overdue days paid by %s", settled.Amount.StringFixed(2), settled.OverdueDays, settled.PaymentMethod,
	))

	return settled, nil
}

// Waive marks a PENDING fine as WAIVED by the actor. The fine is updated in place and returned.
// A fine that is not PENDING stays untouched and ErrAlreadySettled is returned.
func (c *Calculator) Waive(ctx context.Context, fine *core.Fine, request WaiveRequest) (core.Fine, error) {
	if fine == nil {
		return core.Fine{}, core.ErrNilRecord
	}

	unlock := c.locks.Lock(fine.ID.String())

	if fine.IsSettled() {
		unlock()
		return *fine, core.ErrAlreadySettled
	}

	fine.Status = core.FineWaived
	fine.WaivedBy = request.Actor.ID
	fine.WaiveReason = request.Reason
	waived := *fine

	unlock()

	c.audit(ctx, request.Actor, waived, fmt.Sprintf(
		"Fine of %s for %d overdue days waived: %s", waived.Amount.StringFixed(2), waived.OverdueDays, waived.WaiveReason,
	))

	return waived, nil
}

func (c *Calculator) audit(ctx context.Context, actor core.Actor, fine core.Fine, description string) {
	if c.auditSink == nil {
		return
	}

	entry := core.BuildAuditEntry(actor, core.AuditPayment, core.EntityTypeFine, fine.ID, description, c.clock())

	if err := c.auditSink.RecordAudit(ctx, entry); err != nil {
		shell.LogWarn(
			ctx, c.logger, c.contextualLogger, logMsgAuditFailed,
			logAttrFineID, fine.ID.String(),
			logAttrAction, string(core.AuditPayment),
			shell.LogAttrError, err.Error(),
		)
	}
}

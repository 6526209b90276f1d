package fines_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/fines"
	"github.com/AntonStoeckl/library-loan-ledger/testutil/observability/testdoubles"
)

var fixedNow = time.Date(2024, time.April, 1, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func pendingFine() *core.Fine {
	return &core.Fine{
		ID:          uuid.New(),
		LoanID:      uuid.New(),
		Amount:      decimal.NewFromInt(50),
		OverdueDays: 5,
		Status:      core.FinePending,
		CreatedOn:   date(2024, time.March, 20),
	}
}

func staff() core.Actor {
	return core.BuildActor(uuid.New(), core.RoleLibrarian)
}

func Test_NewCalculator_RejectsNegativeRate(t *testing.T) {
	// act
	_, err := fines.NewCalculator(fines.WithRatePerDay(decimal.NewFromInt(-1)))

	// assert
	assert.ErrorIs(t, err, fines.ErrNegativeRate)
}

func Test_Calculator_Assess(t *testing.T) {
	// arrange
	calculator, err := fines.NewCalculator()
	require.NoError(t, err)
	loan := core.Loan{ID: uuid.New(), DueDate: date(2024, time.March, 15)}

	// act
	onTime, onTimeHasFine := calculator.Assess(loan, date(2024, time.March, 15))
	late, lateHasFine := calculator.Assess(loan, date(2024, time.March, 20))

	// assert
	assert.False(t, onTimeHasFine)
	assert.Equal(t, core.Fine{}, onTime)

	assert.True(t, lateHasFine)
	assert.NotEqual(t, uuid.Nil, late.ID)
	assert.Equal(t, loan.ID, late.LoanID)
	assert.Equal(t, 5, late.OverdueDays)
	assert.True(t, decimal.NewFromInt(50).Equal(late.Amount))
	assert.Equal(t, core.FinePending, late.Status)
	assert.Equal(t, date(2024, time.March, 20), late.CreatedOn)
}

func Test_Calculator_Accrued(t *testing.T) {
	// arrange
	calculator, err := fines.NewCalculator(fines.WithRatePerDay(decimal.RequireFromString("2.5")))
	require.NoError(t, err)
	active := core.Loan{DueDate: date(2024, time.March, 15)}
	returned := core.Loan{DueDate: date(2024, time.March, 15), ReturnDate: date(2024, time.March, 18)}

	// act / assert
	assert.True(t, decimal.RequireFromString("10").Equal(calculator.Accrued(active, date(2024, time.March, 19))))
	assert.True(t, decimal.Zero.Equal(calculator.Accrued(active, date(2024, time.March, 1))))
	assert.True(t, decimal.Zero.Equal(calculator.Accrued(returned, date(2024, time.March, 19))))
}

func Test_Calculator_Settle_Pending(t *testing.T) {
	// arrange
	auditSink := testdoubles.NewAuditSinkSpy()
	calculator, err := fines.NewCalculator(fines.WithAuditSink(auditSink), fines.WithClock(fixedClock))
	require.NoError(t, err)
	fine := pendingFine()
	actor := staff()

	// act
	paid, err := calculator.Settle(context.Background(), fine, fines.SettleRequest{
		Method:    core.PaymentUPI,
		Reference: "UPI-4711",
		PaidOn:    date(2024, time.March, 22),
		Actor:     actor,
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.FinePaid, paid.Status)
	assert.Equal(t, date(2024, time.March, 22), paid.PaymentDate)
	assert.Equal(t, core.PaymentUPI, paid.PaymentMethod)
	assert.Equal(t, "UPI-4711", paid.PaymentReference)
	assert.Equal(t, paid, *fine)

	entries := auditSink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, core.AuditPayment, entries[0].Action)
	assert.Equal(t, core.EntityTypeFine, entries[0].EntityType)
	assert.Equal(t, fine.ID, entries[0].EntityID)
	assert.Equal(t, actor.ID, entries[0].ActorID)
	assert.Equal(t, fixedNow, entries[0].RecordedAt)
	assert.Equal(t, "Fine of 50.00 for 5 overdue days paid by UPI", entries[0].Description)
}

func Test_Calculator_Settle_DefaultsPaymentDateToToday(t *testing.T) {
	// arrange
	calculator, err := fines.NewCalculator(fines.WithClock(fixedClock))
	require.NoError(t, err)

	// act
	paid, err := calculator.Settle(context.Background(), pendingFine(), fines.SettleRequest{Method: core.PaymentCash, Actor: staff()})

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.ToDate(fixedNow), paid.PaymentDate)
}

func Test_Calculator_Settle_Twice(t *testing.T) {
	// arrange
	auditSink := testdoubles.NewAuditSinkSpy()
	calculator, err := fines.NewCalculator(fines.WithAuditSink(auditSink))
	require.NoError(t, err)
	fine := pendingFine()
	first, err := calculator.Settle(context.Background(), fine, fines.SettleRequest{Method: core.PaymentCash, PaidOn: date(2024, time.March, 22), Actor: staff()})
	require.NoError(t, err)

	// act
	second, err := calculator.Settle(context.Background(), fine, fines.SettleRequest{Method: core.PaymentCard, PaidOn: date(2024, time.March, 25), Actor: staff()})

	// assert
	assert.ErrorIs(t, err, core.ErrAlreadySettled)
	assert.Equal(t, first, second)
	assert.Equal(t, first, *fine)
	assert.Len(t, auditSink.Entries(), 1)
}

func Test_Calculator_Settle_UnknownMethod(t *testing.T) {
	// arrange
	calculator, err := fines.NewCalculator()
	require.NoError(t, err)
	fine := pendingFine()
	before := *fine

	// act
	_, err = calculator.Settle(context.Background(), fine, fines.SettleRequest{Method: "CHEQUE", Actor: staff()})

	// assert
	assert.ErrorIs(t, err, core.ErrUnknownPaymentMethod)
	assert.Equal(t, before, *fine)
}

func Test_Calculator_NilFine(t *testing.T) {
	// arrange
	calculator, err := fines.NewCalculator()
	require.NoError(t, err)

	// act
	_, settleErr := calculator.Settle(context.Background(), nil, fines.SettleRequest{Method: core.PaymentCash})
	_, waiveErr := calculator.Waive(context.Background(), nil, fines.WaiveRequest{})

	// assert
	assert.ErrorIs(t, settleErr, core.ErrNilRecord)
	assert.ErrorIs(t, waiveErr, core.ErrNilRecord)
}

func Test_Calculator_Waive(t *testing.T) {
	// arrange
	auditSink := testdoubles.NewAuditSinkSpy()
	calculator, err := fines.NewCalculator(fines.WithAuditSink(auditSink))
	require.NoError(t, err)
	fine := pendingFine()
	actor := staff()

	// act
	waived, err := calculator.Waive(context.Background(), fine, fines.WaiveRequest{Reason: "hospitalized", Actor: actor})

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.FineWaived, waived.Status)
	assert.Equal(t, actor.ID, waived.WaivedBy)
	assert.Equal(t, "hospitalized", waived.WaiveReason)
	assert.True(t, waived.PaymentDate.IsZero())

	entries := auditSink.EntriesWithAction(core.AuditPayment)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fine of 50.00 for 5 overdue days waived: hospitalized", entries[0].Description)
}

func Test_Calculator_WaivePaidFine(t *testing.T) {
	// arrange
	calculator, err := fines.NewCalculator()
	require.NoError(t, err)
	fine := pendingFine()
	paid, err := calculator.Settle(context.Background(), fine, fines.SettleRequest{Method: core.PaymentCard, Actor: staff()})
	require.NoError(t, err)

	// act
	_, err = calculator.Waive(context.Background(), fine, fines.WaiveRequest{Reason: "goodwill", Actor: staff()})

	// assert
	assert.ErrorIs(t, err, core.ErrAlreadySettled)
	assert.Equal(t, paid, *fine)
}

func Test_Calculator_AuditFailureDoesNotFailSettlement(t *testing.T) {
	// arrange
	auditSink := testdoubles.NewAuditSinkSpy()
	auditSink.Err = errors.New("audit store down")
	logger := testdoubles.NewContextualLoggerSpy()
	calculator, err := fines.NewCalculator(fines.WithAuditSink(auditSink), fines.WithContextualLogger(logger))
	require.NoError(t, err)

	// act
	paid, err := calculator.Settle(context.Background(), pendingFine(), fines.SettleRequest{Method: core.PaymentCash, Actor: staff()})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, core.FinePaid, paid.Status)
	assert.True(t, logger.HasWarnLog("recording fine audit entry failed"))
}

func Test_Calculator_ConcurrentSettleAndWaive(t *testing.T) {
	// arrange
	calculator, err := fines.NewCalculator()
	require.NoError(t, err)
	fine := pendingFine()

	var successes, rejections atomic.Int32
	var wg sync.WaitGroup

	// act
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			var opErr error
			if i%2 == 0 {
				_, opErr = calculator.Settle(context.Background(), fine, fines.SettleRequest{Method: core.PaymentCash, Actor: staff()})
			} else {
				_, opErr = calculator.Waive(context.Background(), fine, fines.WaiveRequest{Reason: "race", Actor: staff()})
			}

			switch {
			case opErr == nil:
				successes.Add(1)
			case errors.Is(opErr, core.ErrAlreadySettled):
				rejections.Add(1)
			}
		}(i)
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(19), rejections.Load())
	assert.True(t, fine.IsSettled())
}

package waivefine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/issuebook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/payfine"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/returnbook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/waivefine"
	"github.com/AntonStoeckl/library-loan-ledger/ledger"
	"github.com/AntonStoeckl/library-loan-ledger/memoryengine"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/shell/outbox"
)

const isbn = "978-0-262-51087-5"

var (
	fakeClock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	librarian = core.BuildActor(uuid.New(), core.RoleLibrarian)
)

func setupTestEnvironment(t *testing.T) (*memoryengine.Store, *ledger.Ledger) {
	t.Helper()

	store, err := memoryengine.NewStore()
	require.NoError(t, err)
	require.NoError(t, store.AddBook(context.Background(), core.BuildBook(isbn, "Structure and Interpretation", 1)))

	relay := outbox.NewRelay(store, store)
	loanLedger, err := ledger.New(
		ledger.WithNotificationSink(relay),
		ledger.WithAuditSink(relay),
		ledger.WithClock(func() time.Time { return fakeClock }),
	)
	require.NoError(t, err)

	return store, loanLedger
}

func givenPendingFine(t *testing.T, store *memoryengine.Store, loanLedger *ledger.Ledger) core.Fine {
	t.Helper()
	ctx := context.Background()

	issue := issuebook.BuildCommand(uuid.Nil, isbn, uuid.New(), fakeClock, 7, librarian)
	_, err := issuebook.NewCommandHandler(store, loanLedger).Handle(ctx, issue)
	require.NoError(t, err)

	returnDate := core.AddDays(fakeClock, 9)
	_, err = returnbook.NewCommandHandler(store, loanLedger).Handle(ctx, returnbook.BuildCommand(issue.LoanID, returnDate, librarian))
	require.NoError(t, err)

	fine, err := store.LoadFineOfLoan(ctx, issue.LoanID)
	require.NoError(t, err)

	return fine
}

func Test_CommandHandler_Handle_Waives_A_Pending_Fine(t *testing.T) {
	// setup
	ctx := context.Background()
	store, loanLedger := setupTestEnvironment(t)
	handler := waivefine.NewCommandHandler(store, loanLedger.FineCalculator())
	fine := givenPendingFine(t, store, loanLedger)

	// act
	result, err := handler.Handle(ctx, waivefine.BuildCommand(fine.ID, "hospital stay", librarian))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)

	waived, _ := store.LoadFine(ctx, fine.ID)
	assert.Equal(t, core.FineWaived, waived.Status)
	assert.Equal(t, librarian.ID, waived.WaivedBy)
	assert.Equal(t, "hospital stay", waived.WaiveReason)
	assert.True(t, waived.PaymentDate.IsZero())

	trail, _ := store.LoadAuditTrail(ctx, fine.ID)
	require.Len(t, trail, 1)
	assert.Equal(t, core.AuditPayment, trail[0].Entry.Action)
	assert.Equal(t, "WaiveFine", trail[0].Metadata.CommandType)
}

func Test_CommandHandler_Handle_Error_Waiving_A_Paid_Fine(t *testing.T) {
	// setup
	ctx := context.Background()
	store, loanLedger := setupTestEnvironment(t)
	handler := waivefine.NewCommandHandler(store, loanLedger.FineCalculator())
	fine := givenPendingFine(t, store, loanLedger)
	_, err := payfine.NewCommandHandler(store, loanLedger.FineCalculator()).
		Handle(ctx, payfine.BuildCommand(fine.ID, core.PaymentCash, "", fakeClock, librarian))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, waivefine.BuildCommand(fine.ID, "too late", librarian))

	// assert
	assert.ErrorIs(t, err, core.ErrAlreadySettled)
	paid, _ := store.LoadFine(ctx, fine.ID)
	assert.Equal(t, core.FinePaid, paid.Status)
	assert.Empty(t, paid.WaiveReason)
}

func Test_CommandHandler_Handle_Error_Waiving_Twice(t *testing.T) {
	// setup
	ctx := context.Background()
	store, loanLedger := setupTestEnvironment(t)
	handler := waivefine.NewCommandHandler(store, loanLedger.FineCalculator())
	fine := givenPendingFine(t, store, loanLedger)
	_, err := handler.Handle(ctx, waivefine.BuildCommand(fine.ID, "first", librarian))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, waivefine.BuildCommand(fine.ID, "second", librarian))

	// assert
	assert.ErrorIs(t, err, core.ErrAlreadySettled)
	waived, _ := store.LoadFine(ctx, fine.ID)
	assert.Equal(t, "first", waived.WaiveReason)
}

func Test_CommandHandler_Handle_Error_FineNotFound(t *testing.T) {
	// setup
	store, loanLedger := setupTestEnvironment(t)
	handler := waivefine.NewCommandHandler(store, loanLedger.FineCalculator())

	// act
	_, err := handler.Handle(context.Background(), waivefine.BuildCommand(uuid.New(), "none", librarian))

	// assert
	assert.ErrorIs(t, err, shell.ErrFineNotFound)
}

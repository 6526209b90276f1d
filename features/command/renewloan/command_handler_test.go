package renewloan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/issuebook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/renewloan"
	"github.com/AntonStoeckl/library-loan-ledger/ledger"
	"github.com/AntonStoeckl/library-loan-ledger/memoryengine"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/shell/outbox"
)

const isbn = "978-0-13-235088-4"

var (
	fakeClock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	librarian = core.BuildActor(uuid.New(), core.RoleLibrarian)
)

func setupTestEnvironment(t *testing.T) (*memoryengine.Store, *ledger.Ledger) {
	t.Helper()

	store, err := memoryengine.NewStore()
	require.NoError(t, err)
	require.NoError(t, store.AddBook(context.Background(), core.BuildBook(isbn, "Clean Code", 2)))

	relay := outbox.NewRelay(store, store)
	loanLedger, err := ledger.New(
		ledger.WithNotificationSink(relay),
		ledger.WithAuditSink(relay),
		ledger.WithClock(func() time.Time { return fakeClock }),
	)
	require.NoError(t, err)

	return store, loanLedger
}

func givenIssuedLoan(t *testing.T, store *memoryengine.Store, loanLedger *ledger.Ledger, borrowerID uuid.UUID) core.LoanID {
	t.Helper()

	command := issuebook.BuildCommand(uuid.Nil, isbn, borrowerID, fakeClock, 0, librarian)
	_, err := issuebook.NewCommandHandler(store, loanLedger).Handle(context.Background(), command)
	require.NoError(t, err)

	return command.LoanID
}

func Test_CommandHandler_Handle_Renewal_By_The_Borrower(t *testing.T) {
	// setup
	ctx := context.Background()
	store, loanLedger := setupTestEnvironment(t)
	handler := renewloan.NewCommandHandler(store, loanLedger)
	borrower := core.BuildActor(uuid.New(), core.RoleStudent)
	loanID := givenIssuedLoan(t, store, loanLedger, borrower.ID)

	// act
	result, err := handler.Handle(ctx, renewloan.BuildCommand(loanID, 0, borrower))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)
	loan, _ := store.LoadLoan(ctx, loanID)
	assert.Equal(t, 1, loan.RenewalCount)
	assert.Equal(t, core.AddDays(fakeClock, core.DefaultLoanDays+core.DefaultRenewalDays), loan.DueDate)

	trail, _ := store.LoadAuditTrail(ctx, loanID)
	require.Len(t, trail, 2)
	assert.Equal(t, core.AuditRenew, trail[1].Entry.Action)
	assert.Equal(t, borrower.ID, trail[1].Entry.ActorID)
}

func Test_CommandHandler_Handle_Renewal_By_Staff_With_Custom_Extension(t *testing.T) {
	// setup
	ctx := context.Background()
	store, loanLedger := setupTestEnvironment(t)
	handler := renewloan.NewCommandHandler(store, loanLedger)
	loanID := givenIssuedLoan(t, store, loanLedger, uuid.New())

	// act
	_, err := handler.Handle(ctx, renewloan.BuildCommand(loanID, 3, librarian))

	// assert
	require.NoError(t, err)
	loan, _ := store.LoadLoan(ctx, loanID)
	assert.Equal(t, core.AddDays(fakeClock, core.DefaultLoanDays+3), loan.DueDate)
}

func Test_CommandHandler_Handle_Error_RenewalNotPermitted(t *testing.T) {
	// setup
	ctx := context.Background()
	store, loanLedger := setupTestEnvironment(t)
	handler := renewloan.NewCommandHandler(store, loanLedger)
	loanID := givenIssuedLoan(t, store, loanLedger, uuid.New())
	stranger := core.BuildActor(uuid.New(), core.RoleStudent)

	// act
	_, err := handler.Handle(ctx, renewloan.BuildCommand(loanID, 0, stranger))

	// assert
	assert.ErrorIs(t, err, core.ErrRenewalNotPermitted)
	loan, _ := store.LoadLoan(ctx, loanID)
	assert.Equal(t, 0, loan.RenewalCount)
}

func Test_CommandHandler_Handle_Error_RenewalLimit(t *testing.T) {
	// setup
	ctx := context.Background()
	store, loanLedger := setupTestEnvironment(t)
	handler := renewloan.NewCommandHandler(store, loanLedger)
	loanID := givenIssuedLoan(t, store, loanLedger, uuid.New())

	// arrange
	for range core.DefaultMaxRenewals {
		_, err := handler.Handle(ctx, renewloan.BuildCommand(loanID, 0, librarian))
		require.NoError(t, err)
	}
	before, _ := store.LoadLoan(ctx, loanID)

	// act
	result, err := handler.Handle(ctx, renewloan.BuildCommand(loanID, 0, librarian))

	// assert
	assert.ErrorIs(t, err, core.ErrRenewalLimit)
	assert.Equal(t, 1, result.RetryAttempts)
	after, _ := store.LoadLoan(ctx, loanID)
	assert.Equal(t, before, after)
}

func Test_CommandHandler_Handle_Error_LoanNotFound(t *testing.T) {
	// setup
	store, loanLedger := setupTestEnvironment(t)
	handler := renewloan.NewCommandHandler(store, loanLedger)

	// act
	_, err := handler.Handle(context.Background(), renewloan.BuildCommand(uuid.New(), 0, librarian))

	// assert
	assert.ErrorIs(t, err, shell.ErrLoanNotFound)
}

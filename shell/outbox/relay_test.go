package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/shell/outbox"
	"github.com/AntonStoeckl/library-loan-ledger/testutil/observability/testdoubles"
)

func someNotification() core.Notification {
	return core.BuildNotification(uuid.New(), core.NotificationGeneral, "Book Issued", "enjoy", uuid.New())
}

func someAuditEntry() core.AuditEntry {
	return core.BuildAuditEntry(
		core.BuildActor(uuid.New(), core.RoleLibrarian), core.AuditIssue, core.EntityTypeLoan, uuid.New(), "Issued", time.Now(),
	)
}

func Test_Relay_Delivers_Directly_Outside_Of_A_Buffered_Context(t *testing.T) {
	// arrange
	notifications := testdoubles.NewNotificationSinkSpy()
	audit := testdoubles.NewAuditSinkSpy()
	relay := outbox.NewRelay(notifications, audit)

	// act
	notifyErr := relay.Notify(context.Background(), someNotification())
	auditErr := relay.RecordAudit(context.Background(), someAuditEntry())

	// assert
	assert.NoError(t, notifyErr)
	assert.NoError(t, auditErr)
	assert.Len(t, notifications.Notifications(), 1)
	assert.Len(t, audit.Entries(), 1)
}

func Test_Relay_Buffers_Until_Flush(t *testing.T) {
	// arrange
	notifications := testdoubles.NewNotificationSinkSpy()
	audit := testdoubles.NewAuditSinkSpy()
	relay := outbox.NewRelay(notifications, audit)
	ctx, buffer := outbox.Begin(context.Background())

	// act
	_ = relay.RecordAudit(ctx, someAuditEntry())
	_ = relay.Notify(ctx, someNotification())

	// assert
	assert.Equal(t, 2, buffer.Len())
	assert.Empty(t, notifications.Notifications())
	assert.Empty(t, audit.Entries())

	buffer.Flush(context.Background())

	assert.Equal(t, 0, buffer.Len())
	assert.Len(t, notifications.Notifications(), 1)
	assert.Len(t, audit.Entries(), 1)
}

func Test_Relay_Drops_What_Is_Never_Flushed(t *testing.T) {
	// arrange
	notifications := testdoubles.NewNotificationSinkSpy()
	relay := outbox.NewRelay(notifications, nil)
	ctx, _ := outbox.Begin(context.Background())

	// act
	_ = relay.Notify(ctx, someNotification())
	_ = relay.RecordAudit(ctx, someAuditEntry())

	// assert
	assert.Empty(t, notifications.Notifications())
}

func Test_Relay_Logs_Failed_Deliveries_And_Keeps_Going(t *testing.T) {
	// arrange
	notifications := testdoubles.NewNotificationSinkSpy()
	notifications.Err = errors.New("smtp down")
	audit := testdoubles.NewAuditSinkSpy()
	logger := testdoubles.NewContextualLoggerSpy()
	relay := outbox.NewRelay(notifications, audit, outbox.WithContextualLogger(logger))
	ctx, buffer := outbox.Begin(context.Background())
	_ = relay.Notify(ctx, someNotification())
	_ = relay.RecordAudit(ctx, someAuditEntry())

	// act
	buffer.Flush(context.Background())

	// assert
	assert.True(t, logger.HasWarnLog("delivering notification failed"))
	assert.Len(t, audit.Entries(), 1)
}

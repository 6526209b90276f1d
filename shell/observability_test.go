package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/testutil/observability/testdoubles"
)

func Test_RecordCommandMetrics_RecordsStatusCounters(t *testing.T) {
	testCases := []struct {
		status        string
		statusCounter string
	}{
		{status: shell.StatusIdempotent, statusCounter: shell.CommandHandlerIdempotentMetric},
		{status: shell.StatusRejected, statusCounter: shell.CommandHandlerRejectedMetric},
		{status: shell.StatusCanceled, statusCounter: shell.CommandHandlerCanceledMetric},
		{status: shell.StatusTimeout, statusCounter: shell.CommandHandlerTimeoutMetric},
		{status: shell.StatusConcurrencyConflict, statusCounter: shell.CommandHandlerConcurrencyConflictMetric},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			metricsCollector := testdoubles.NewMetricsCollectorSpy()
			labels := map[string]string{"command_type": "ReturnBook", "status": tc.status}

			// act
			shell.RecordCommandMetrics(context.Background(), metricsCollector, "ReturnBook", tc.status, time.Millisecond)

			// assert
			assert.True(t, metricsCollector.HasDurationRecord(shell.CommandHandlerDurationMetric, labels))
			assert.True(t, metricsCollector.HasCounterRecord(shell.CommandHandlerCallsMetric, labels))
			assert.True(t, metricsCollector.HasCounterRecord(tc.statusCounter, labels))
		})
	}
}

func Test_RecordCommandMetrics_SuccessHasNoStatusCounter(t *testing.T) {
	// arrange
	metricsCollector := testdoubles.NewMetricsCollectorSpy()

	// act
	shell.RecordCommandMetrics(context.Background(), metricsCollector, "IssueBook", shell.StatusSuccess, time.Millisecond)

	// assert
	assert.Equal(t, 1, metricsCollector.CountCounterRecords(shell.CommandHandlerCallsMetric, nil))
	assert.Equal(t, 0, metricsCollector.CountCounterRecords(shell.CommandHandlerIdempotentMetric, nil))
}

func Test_RecordCommandMetrics_NilCollector(t *testing.T) {
	assert.NotPanics(t, func() {
		shell.RecordCommandMetrics(context.Background(), nil, "IssueBook", shell.StatusSuccess, time.Millisecond)
	})
}

func Test_CommandSpan_StartAndFinish(t *testing.T) {
	// arrange
	tracingCollector := testdoubles.NewTracingCollectorSpy()

	// act
	_, span := shell.StartCommandSpan(context.Background(), tracingCollector, "RenewLoan")
	shell.FinishCommandSpan(tracingCollector, span, shell.StatusError, 1500*time.Microsecond, errors.New("boom"))

	// assert
	records := tracingCollector.SpanRecords()
	assert.Len(t, records, 1)
	assert.Equal(t, shell.SpanNameCommandHandle, records[0].Name)
	assert.Equal(t, "RenewLoan", records[0].StartAttributes[shell.LogAttrCommandType])
	assert.Equal(t, shell.StatusError, records[0].Status)
	assert.Equal(t, "1.50", records[0].EndAttributes[shell.LogAttrDurationMS])
	assert.Equal(t, "boom", records[0].EndAttributes[shell.LogAttrError])
}

func Test_CommandSpan_TracingDisabled(t *testing.T) {
	// arrange
	ctx := context.Background()

	// act
	spanCtx, span := shell.StartCommandSpan(ctx, nil, "RenewLoan")

	// assert
	assert.Equal(t, ctx, spanCtx)
	assert.Nil(t, span)
	assert.NotPanics(t, func() { shell.FinishCommandSpan(nil, span, shell.StatusSuccess, 0, nil) })
}

func Test_Logging_PrefersContextualLogger(t *testing.T) {
	// arrange
	logger := testdoubles.NewLoggerSpy()
	contextualLogger := testdoubles.NewContextualLoggerSpy()

	// act
	shell.LogCommandStart(context.Background(), logger, contextualLogger, "PayFine")
	shell.LogCommandError(context.Background(), logger, nil, "PayFine", core.ErrAlreadySettled)

	// assert
	assert.True(t, contextualLogger.HasInfoLog(shell.LogMsgCommandStarted))
	assert.False(t, logger.HasInfoLog(shell.LogMsgCommandStarted))
	assert.True(t, logger.HasErrorLog(shell.LogMsgCommandFailed))
}

func Test_ErrorClassification(t *testing.T) {
	assert.True(t, shell.IsCancellationError(errors.Join(shell.ErrQueryingFailed, context.Canceled)))
	assert.True(t, shell.IsTimeoutError(context.DeadlineExceeded))
	assert.True(t, shell.IsConcurrencyConflictError(errors.Join(shell.ErrSavingFailed, shell.ErrConcurrencyConflict)))
	assert.True(t, shell.IsRejectionError(core.ErrUnavailable))
	assert.True(t, shell.IsRejectionError(core.ErrAlreadySettled))
	assert.False(t, shell.IsRejectionError(shell.ErrSavingFailed))
}

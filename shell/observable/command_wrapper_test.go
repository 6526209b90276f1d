package observable_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/shell/observable"
	"github.com/AntonStoeckl/library-loan-ledger/testutil/observability/testdoubles"
)

type mockCommand struct{}

func (mockCommand) CommandType() string { return "TestCommand" }

type mockHandler struct {
	result shell.HandlerResult
	err    error
	calls  []mockCommand
	mu     sync.Mutex
}

func (h *mockHandler) Handle(_ context.Context, command mockCommand) (shell.HandlerResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls = append(h.calls, command)

	return h.result, h.err
}

func buildWrapper(
	t *testing.T,
	handler *mockHandler,
) (*observable.CommandWrapper[mockCommand], *testdoubles.MetricsCollectorSpy, *testdoubles.TracingCollectorSpy, *testdoubles.ContextualLoggerSpy) {

	t.Helper()

	metricsCollector := testdoubles.NewMetricsCollectorSpy()
	tracingCollector := testdoubles.NewTracingCollectorSpy()
	contextualLogger := testdoubles.NewContextualLoggerSpy()

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
		observable.WithCommandTracing[mockCommand](tracingCollector),
		observable.WithCommandContextualLogging[mockCommand](contextualLogger),
	)
	require.NoError(t, err)

	return wrapper, metricsCollector, tracingCollector, contextualLogger
}

func statusLabels(status string) map[string]string {
	return map[string]string{"command_type": "TestCommand", "status": status}
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	expectedResult := shell.HandlerResult{RetryAttempts: 1, LastErrorType: "none"}
	handler := &mockHandler{result: expectedResult}
	wrapper, metricsCollector, tracingCollector, contextualLogger := buildWrapper(t, handler)

	// act
	result, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, expectedResult, result)
	assert.Len(t, handler.calls, 1)
	assert.True(t, metricsCollector.HasCounterRecord(shell.CommandHandlerCallsMetric, statusLabels(shell.StatusSuccess)))
	assert.True(t, metricsCollector.HasDurationRecord(shell.CommandHandlerDurationMetric, statusLabels(shell.StatusSuccess)))
	assert.Equal(t, 0, metricsCollector.CountCounterRecords(shell.CommandHandlerRetriesMetric, nil))
	assert.True(t, tracingCollector.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusSuccess))
	assert.True(t, contextualLogger.HasInfoLog(shell.LogMsgCommandStarted))
	assert.True(t, contextualLogger.HasInfoLog(shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_Idempotent(t *testing.T) {
	// arrange
	handler := &mockHandler{result: shell.HandlerResult{Idempotent: true, RetryAttempts: 1}}
	wrapper, metricsCollector, _, _ := buildWrapper(t, handler)

	// act
	_, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, metricsCollector.HasCounterRecord(shell.CommandHandlerIdempotentMetric, statusLabels(shell.StatusIdempotent)))
}

func Test_CommandWrapper_Handle_RecordsRetryMetadata(t *testing.T) {
	// arrange
	handler := &mockHandler{
		result: shell.HandlerResult{
			RetryAttempts:    6,
			TotalRetryDelay:  300 * time.Millisecond,
			LastErrorType:    "concurrency_conflict",
			RetriesExhausted: true,
		},
		err: shell.ErrConcurrencyConflict,
	}
	wrapper, metricsCollector, tracingCollector, contextualLogger := buildWrapper(t, handler)

	// act
	_, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.ErrorIs(t, err, shell.ErrConcurrencyConflict)
	assert.True(t, metricsCollector.HasCounterRecord(
		shell.CommandHandlerRetriesMetric,
		map[string]string{"command_type": "TestCommand", "attempt_number": "5", "error_type": "concurrency_conflict"},
	))
	assert.True(t, metricsCollector.HasDurationRecord(shell.CommandHandlerRetryDelayMetric, map[string]string{"command_type": "TestCommand"}))
	assert.True(t, metricsCollector.HasCounterRecord(shell.CommandHandlerMaxRetriesReachedMetric, nil))
	assert.True(t, metricsCollector.HasCounterRecord(
		shell.CommandHandlerConcurrencyConflictMetric,
		statusLabels(shell.StatusConcurrencyConflict),
	))
	assert.True(t, tracingCollector.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusConcurrencyConflict))
	assert.True(t, contextualLogger.HasErrorLog(shell.LogMsgCommandFailed))
}

func Test_CommandWrapper_Handle_ErrorStatuses(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus string
	}{
		{name: "canceled", err: context.Canceled, expectedStatus: shell.StatusCanceled},
		{name: "timeout", err: context.DeadlineExceeded, expectedStatus: shell.StatusTimeout},
		{name: "rejected", err: core.ErrRenewalLimit, expectedStatus: shell.StatusRejected},
		{name: "technical", err: errors.Join(shell.ErrSavingFailed, errors.New("connection reset")), expectedStatus: shell.StatusError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			handler := &mockHandler{result: shell.HandlerResult{RetryAttempts: 1}, err: tc.err}
			wrapper, metricsCollector, tracingCollector, _ := buildWrapper(t, handler)

			// act
			_, err := wrapper.Handle(context.Background(), mockCommand{})

			// assert
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, metricsCollector.HasCounterRecord(shell.CommandHandlerCallsMetric, statusLabels(tc.expectedStatus)))
			assert.True(t, tracingCollector.HasFinishedSpan(shell.SpanNameCommandHandle, tc.expectedStatus))
		})
	}
}

func Test_CommandWrapper_Handle_RejectionIsNotLoggedAsError(t *testing.T) {
	// arrange
	handler := &mockHandler{result: shell.HandlerResult{RetryAttempts: 1}, err: core.ErrUnavailable}
	wrapper, _, _, contextualLogger := buildWrapper(t, handler)

	// act
	_, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.False(t, contextualLogger.HasErrorLog(shell.LogMsgCommandFailed))
	assert.True(t, contextualLogger.HasInfoLog(shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_WithoutObservability(t *testing.T) {
	// arrange
	handler := &mockHandler{result: shell.HandlerResult{RetryAttempts: 1}}
	wrapper, err := observable.NewCommandWrapper[mockCommand](handler)
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
}

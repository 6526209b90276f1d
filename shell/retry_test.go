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

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return shell.ErrConcurrencyConflict
		}
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, shell.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_WrappedConflictIsRetried(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount == 1 {
			return errors.Join(shell.ErrSavingFailed, shell.ErrConcurrencyConflict)
		}
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, shell.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, meta.Attempts)
}

func Test_RetryWithExponentialBackoff_DomainErrorFailsFast(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return core.ErrUnavailable
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_TimeoutFailsFast(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return context.DeadlineExceeded
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "context_deadline_exceeded", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_MaxAttemptsExhausted(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return shell.ErrConcurrencyConflict
	}
	metricsCollector := testdoubles.NewMetricsCollectorSpy()

	// act
	meta, err := shell.RetryWithExponentialBackoff(
		context.Background(),
		fn,
		shell.WithMaxAttempts(3),
		shell.WithBaseDelay(time.Millisecond),
		shell.WithJitterFactor(0),
		shell.WithMetrics(metricsCollector, "IssueBook"),
	)

	// assert
	assert.ErrorIs(t, err, shell.ErrConcurrencyConflict)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay)

	assert.Equal(t, 2, metricsCollector.CountDurationRecords(shell.CommandHandlerRetryDelayMetric, nil))
	assert.Equal(t, 2, metricsCollector.CountCounterRecords(shell.CommandHandlerRetriesMetric, nil))
	assert.True(t, metricsCollector.HasCounterRecord(
		shell.CommandHandlerMaxRetriesReachedMetric,
		map[string]string{"command_type": "IssueBook", "final_error_type": "concurrency_conflict"},
	))
}

func Test_RetryWithExponentialBackoff_ContextCanceledDuringBackoff(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return shell.ErrConcurrencyConflict
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	// arrange
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	testCases := []struct {
		name        string
		option      shell.RetryOption
		expectedErr error
	}{
		{name: "max attempts", option: shell.WithMaxAttempts(0), expectedErr: shell.ErrInvalidMaxAttempts},
		{name: "base delay", option: shell.WithBaseDelay(-time.Second), expectedErr: shell.ErrNegativeBaseDelay},
		{name: "jitter", option: shell.WithJitterFactor(1.5), expectedErr: shell.ErrInvalidJitterFactor},
		{name: "nil collector", option: shell.WithMetrics(nil, "IssueBook"), expectedErr: shell.ErrNilMetricsCollector},
		{name: "empty command type", option: shell.WithMetrics(testdoubles.NewMetricsCollectorSpy(), ""), expectedErr: shell.ErrEmptyCommandType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := shell.RetryWithExponentialBackoff(ctx, fn, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

// SpyLogRecord represents a recorded log call.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

type logRecords struct {
	records []SpyLogRecord
	mu      sync.Mutex
}

func (r *logRecords) add(ctx context.Context, level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, SpyLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// Records returns a copy of all log records.
func (r *logRecords) Records() []SpyLogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]SpyLogRecord(nil), r.records...)
}

// HasLog checks if a log with the level and message exists.
func (r *logRecords) HasLog(level, message string) bool {
	for _, record := range r.Records() {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}

// HasInfoLog checks if an info log with the message exists.
func (r *logRecords) HasInfoLog(message string) bool { return r.HasLog("info", message) }

// HasWarnLog checks if a warn log with the message exists.
func (r *logRecords) HasWarnLog(message string) bool { return r.HasLog("warn", message) }

// HasErrorLog checks if an error log with the message exists.
func (r *logRecords) HasErrorLog(message string) bool { return r.HasLog("error", message) }

// ContextualLoggerSpy is a shell.ContextualLogger that captures log calls for testing.
type ContextualLoggerSpy struct {
	logRecords
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

// DebugContext implements shell.ContextualLogger.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "debug", msg, args)
}

// InfoContext implements shell.ContextualLogger.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "info", msg, args)
}

// WarnContext implements shell.ContextualLogger.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "warn", msg, args)
}

// ErrorContext implements shell.ContextualLogger.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "error", msg, args)
}

// LoggerSpy is a shell.Logger that captures log calls for testing.
type LoggerSpy struct {
	logRecords
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

// Debug implements shell.Logger.
func (s *LoggerSpy) Debug(msg string, args ...any) { s.add(context.Background(), "debug", msg, args) }

// Info implements shell.Logger.
func (s *LoggerSpy) Info(msg string, args ...any) { s.add(context.Background(), "info", msg, args) }

// Warn implements shell.Logger.
func (s *LoggerSpy) Warn(msg string, args ...any) { s.add(context.Background(), "warn", msg, args) }

// Error implements shell.Logger.
func (s *LoggerSpy) Error(msg string, args ...any) { s.add(context.Background(), "error", msg, args) }

var (
	_ shell.ContextualLogger = (*ContextualLoggerSpy)(nil)
	_ shell.Logger           = (*LoggerSpy)(nil)
)

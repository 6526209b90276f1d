package outbox

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	logMsgNotificationFailed = "delivering notification failed"
	logMsgAuditFailed        = "delivering audit entry failed"
	logAttrError             = "error"
	logAttrEntityID          = "entity_id"
	logAttrBorrowerID        = "borrower_id"
)

type delivery func(ctx context.Context)

// Buffer collects the deliveries of one attempt in the order they were made.
type Buffer struct {
	mu         sync.Mutex
	deliveries []delivery
}

type bufferKey struct{}

// Begin returns a context in which a Relay buffers instead of delivering.
func Begin(ctx context.Context) (context.Context, *Buffer) {
	buffer := &Buffer{}

	return context.WithValue(ctx, bufferKey{}, buffer), buffer
}

func bufferFrom(ctx context.Context) (*Buffer, bool) {
	buffer, ok := ctx.Value(bufferKey{}).(*Buffer)

	return buffer, ok && buffer != nil
}

func (b *Buffer) add(d delivery) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliveries = append(b.deliveries, d)
}

// Len returns the number of pending deliveries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.deliveries)
}

// Flush delivers everything that was buffered and empties the buffer.
// Failures are logged by the Relay and do not stop the remaining deliveries.
func (b *Buffer) Flush(ctx context.Context) {
	b.mu.Lock()
	deliveries := b.deliveries
	b.deliveries = nil
	b.mu.Unlock()

	for _, d := range deliveries {
		d(ctx)
	}
}

// Relay implements core.NotificationSink and core.AuditSink on top of the real sinks.
type Relay struct {
	notifications    core.NotificationSink
	audit            core.AuditSink
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger that reports failed deliveries.
func WithLogger(logger shell.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithContextualLogger sets the contextual logger that reports failed deliveries.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(r *Relay) {
		r.contextualLogger = logger
	}
}

// NewRelay creates a Relay. Either sink may be nil, its deliveries are then dropped.
func NewRelay(notifications core.NotificationSink, audit core.AuditSink, options ...Option) *Relay {
	relay := &Relay{
		notifications: notifications,
		audit:         audit,
	}

	for _, option := range options {
		option(relay)
	}

	return relay
}

// Notify buffers the notification if ctx came from Begin, otherwise it is delivered right away.
func (r *Relay) Notify(ctx context.Context, notification core.Notification) error {
	if buffer, ok := bufferFrom(ctx); ok {
		buffer.add(func(flushCtx context.Context) {
			_ = r.deliverNotification(flushCtx, notification)
		})

		return nil
	}

	return r.deliverNotification(ctx, notification)
}

// RecordAudit buffers the entry if ctx came from Begin, otherwise it is delivered right away.
func (r *Relay) RecordAudit(ctx context.Context, entry core.AuditEntry) error {
	if buffer, ok := bufferFrom(ctx); ok {
		buffer.add(func(flushCtx context.Context) {
			_ = r.deliverAuditEntry(flushCtx, entry)
		})

		return nil
	}

	return r.deliverAuditEntry(ctx, entry)
}

func (r *Relay) deliverNotification(ctx context.Context, notification core.Notification) error {
	if r.notifications == nil {
		return nil
	}

	err := r.notifications.Notify(ctx, notification)
	if err != nil {
		shell.LogWarn(ctx, r.logger, r.contextualLogger, logMsgNotificationFailed,
			logAttrError, err.Error(),
			logAttrBorrowerID, notification.BorrowerID.String(),
		)
	}

	return err
}

func (r *Relay) deliverAuditEntry(ctx context.Context, entry core.AuditEntry) error {
	if r.audit == nil {
		return nil
	}

	err := r.audit.RecordAudit(ctx, entry)
	if err != nil {
		shell.LogWarn(ctx, r.logger, r.contextualLogger, logMsgAuditFailed,
			logAttrError, err.Error(),
			logAttrEntityID, entry.EntityID.String(),
		)
	}

	return err
}

package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-loan-ledger/core"
)

// NotificationSinkSpy is a core.NotificationSink that captures notifications.
// If Err is set, every call is still captured and then fails with Err.
type NotificationSinkSpy struct {
	Err           error
	notifications []core.Notification
	mu            sync.Mutex
}

// NewNotificationSinkSpy creates a new NotificationSinkSpy.
func NewNotificationSinkSpy() *NotificationSinkSpy {
	return &NotificationSinkSpy{}
}

// Notify implements core.NotificationSink.
func (s *NotificationSinkSpy) Notify(_ context.Context, notification core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, notification)

	return s.Err
}

// Notifications returns a copy of all captured notifications.
func (s *NotificationSinkSpy) Notifications() []core.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.Notification(nil), s.notifications...)
}

// NotificationsOfType returns the captured notifications of the given type.
func (s *NotificationSinkSpy) NotificationsOfType(notificationType core.NotificationType) []core.Notification {
	matching := make([]core.Notification, 0)

	for _, notification := range s.Notifications() {
		if notification.Type == notificationType {
			matching = append(matching, notification)
		}
	}

	return matching
}

// AuditSinkSpy is a core.AuditSink that captures audit entries.
// If Err is set, every call is still captured and then fails with Err.
type AuditSinkSpy struct {
	Err     error
	entries []core.AuditEntry
	mu      sync.Mutex
}

// NewAuditSinkSpy creates a new AuditSinkSpy.
func NewAuditSinkSpy() *AuditSinkSpy {
	return &AuditSinkSpy{}
}

// RecordAudit implements core.AuditSink.
func (s *AuditSinkSpy) RecordAudit(_ context.Context, entry core.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)

	return s.Err
}

// Entries returns a copy of all captured audit entries.
func (s *AuditSinkSpy) Entries() []core.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.AuditEntry(nil), s.entries...)
}

// EntriesWithAction returns the captured audit entries with the given action.
func (s *AuditSinkSpy) EntriesWithAction(action core.AuditAction) []core.AuditEntry {
	matching := make([]core.AuditEntry, 0)

	for _, entry := range s.Entries() {
		if entry.Action == action {
			matching = append(matching, entry)
		}
	}

	return matching
}

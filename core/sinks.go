package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies notifications sent to borrowers.
type NotificationType string

const (
	NotificationGeneral   NotificationType = "GENERAL"
	NotificationDueSoon   NotificationType = "DUE_SOON"
	NotificationOverdue   NotificationType = "OVERDUE"
	NotificationFine      NotificationType = "FINE"
	NotificationAvailable NotificationType = "AVAILABLE"
)

// AuditAction classifies audit entries written by the loan lifecycle.
type AuditAction string

const (
	AuditIssue   AuditAction = "ISSUE"
	AuditReturn  AuditAction = "RETURN"
	AuditRenew   AuditAction = "RENEW"
	AuditPayment AuditAction = "PAYMENT"
)

const (
	// EntityTypeLoan is the audited entity type for loan transitions.
	EntityTypeLoan = "Loan"

	// EntityTypeFine is the audited entity type for fine transitions.
	EntityTypeFine = "Fine"
)

// Notification is a message to a borrower. RelatedLoan is uuid.Nil if there is none.
type Notification struct {
	BorrowerID  BorrowerID
	Type        NotificationType
	Title       string
	Message     string
	RelatedLoan LoanID
}

// BuildNotification creates a new Notification.
func BuildNotification(
	borrowerID BorrowerID,
	notificationType NotificationType,
	title string,
	message string,
	relatedLoan LoanID,
) Notification {

	return Notification{
		BorrowerID:  borrowerID,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		RelatedLoan: relatedLoan,
	}
}

// AuditEntry records one successful lifecycle mutation.
type AuditEntry struct {
	ActorID     uuid.UUID
	Action      AuditAction
	EntityType  string
	EntityID    uuid.UUID
	Description string
	RecordedAt  time.Time
}

// BuildAuditEntry creates a new AuditEntry.
func BuildAuditEntry(
	actor Actor,
	action AuditAction,
	entityType string,
	entityID uuid.UUID,
	description string,
	recordedAt time.Time,
) AuditEntry {

	return AuditEntry{
		ActorID:     actor.ID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		RecordedAt:  recordedAt.UTC().Truncate(time.Microsecond),
	}
}

// NotificationSink delivers notifications. Delivery is fire-and-forget from the lifecycle's point of view.
type NotificationSink interface {
	Notify(ctx context.Context, notification Notification) error
}

// AuditSink records audit entries after every successful lifecycle mutation.
type AuditSink interface {
	RecordAudit(ctx context.Context, entry AuditEntry) error
}

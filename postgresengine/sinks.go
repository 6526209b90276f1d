package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	colType        = "type"
	colMessage     = "message"
	colRelatedLoan = "related_loan"
	colCreatedAt   = "created_at"
	colActorID     = "actor_id"
	colAction      = "action"
	colEntityType  = "entity_type"
	colEntityID    = "entity_id"
	colDescription = "description"
	colMetadata    = "metadata"
	colRecordedAt  = "recorded_at"
)

// Notify stores a notification for the borrower's inbox.
func (s Store) Notify(ctx context.Context, notification core.Notification) error {
	sqlQuery, buildErr := s.toSQL(
		s.builder().
			Insert(s.table(tableNotifications)).
			Rows(goqu.Record{
				colBorrowerID:  uuidValue(notification.BorrowerID),
				colType:        string(notification.Type),
				colTitle:       notification.Title,
				colMessage:     notification.Message,
				colRelatedLoan: optionalUUIDValue(notification.RelatedLoan),
			}),
	)
	if buildErr != nil {
		return buildErr
	}

	_, execErr := s.execStatement(ctx, s.db, sqlQuery, tableNotifications)

	return execErr
}

// RecordAudit appends an entry to the audit log.
// The AuditMetadata found in ctx, if any, is stored alongside it.
func (s Store) RecordAudit(ctx context.Context, entry core.AuditEntry) error {
	metadataJSON, marshalErr := shell.AuditMetadataJSON(ctx)
	if marshalErr != nil {
		return marshalErr
	}

	sqlQuery, buildErr := s.toSQL(
		s.builder().
			Insert(s.table(tableAuditLog)).
			Rows(goqu.Record{
				colActorID:     optionalUUIDValue(entry.ActorID),
				colAction:      string(entry.Action),
				colEntityType:  entry.EntityType,
				colEntityID:    uuidValue(entry.EntityID),
				colDescription: entry.Description,
				colMetadata:    goqu.L(castJsonb, string(metadataJSON)),
				colRecordedAt:  goqu.L(castTimestamp, entry.RecordedAt.UTC().Format(time.RFC3339Nano)),
			}),
	)
	if buildErr != nil {
		return buildErr
	}

	_, execErr := s.execStatement(ctx, s.db, sqlQuery, tableAuditLog)

	return execErr
}

// LoadNotificationsOf reads the notifications of a borrower, oldest first.
func (s Store) LoadNotificationsOf(ctx context.Context, borrowerID core.BorrowerID) ([]core.Notification, error) {
	sqlQuery, buildErr := s.toSQL(
		s.builder().
			From(s.table(tableNotifications)).
			Select(asText(colBorrowerID), colType, colTitle, colMessage, asText(colRelatedLoan)).
			Where(goqu.C(colBorrowerID).Eq(uuidValue(borrowerID))).
			Order(goqu.C(colCreatedAt).Asc(), goqu.C(colID).Asc()),
	)
	if buildErr != nil {
		return nil, buildErr
	}

	notifications := make([]core.Notification, 0)

	queryErr := s.queryRows(ctx, s.db, sqlQuery, func(rows adapters.DBRows) error {
		var borrower, notificationType, title, message string
		var relatedLoan *string

		if err := rows.Scan(&borrower, &notificationType, &title, &message, &relatedLoan); err != nil {
			return err
		}

		borrowerUUID, borrowerErr := uuid.Parse(borrower)
		relatedLoanID, relatedErr := parseOptionalUUID(relatedLoan)
		if err := errors.Join(borrowerErr, relatedErr); err != nil {
			return err
		}

		notifications = append(notifications, core.BuildNotification(
			borrowerUUID, core.NotificationType(notificationType), title, message, relatedLoanID,
		))

		return nil
	})
	if queryErr != nil {
		return nil, queryErr
	}

	return notifications, nil
}

// LoadAuditTrail reads the audit entries of one loan or fine in the order they were recorded.
func (s Store) LoadAuditTrail(ctx context.Context, entityID uuid.UUID) ([]shell.AuditRecord, error) {
	sqlQuery, buildErr := s.toSQL(
		s.builder().
			From(s.table(tableAuditLog)).
			Select(
				asText(colActorID),
				colAction,
				colEntityType,
				asText(colEntityID),
				colDescription,
				asText(colMetadata),
				colRecordedAt,
			).
			Where(goqu.C(colEntityID).Eq(uuidValue(entityID))).
			Order(goqu.C(colID).Asc()),
	)
	if buildErr != nil {
		return nil, buildErr
	}

	records := make([]shell.AuditRecord, 0)

	queryErr := s.queryRows(ctx, s.db, sqlQuery, func(rows adapters.DBRows) error {
		var actorID *string
		var action, entityType, entity, description, metadataJSON string
		var recordedAt time.Time

		if err := rows.Scan(&actorID, &action, &entityType, &entity, &description, &metadataJSON, &recordedAt); err != nil {
			return err
		}

		actorUUID, actorErr := parseOptionalUUID(actorID)
		entityUUID, entityErr := uuid.Parse(entity)
		metadata, metadataErr := shell.AuditMetadataFrom([]byte(metadataJSON))
		if err := errors.Join(actorErr, entityErr, metadataErr); err != nil {
			return err
		}

		records = append(records, shell.AuditRecord{
			Entry: core.AuditEntry{
				ActorID:     actorUUID,
				Action:      core.AuditAction(action),
				EntityType:  entityType,
				EntityID:    entityUUID,
				Description: description,
				RecordedAt:  recordedAt.UTC(),
			},
			Metadata: metadata,
		})

		return nil
	})
	if queryErr != nil {
		return nil, queryErr
	}

	return records, nil
}

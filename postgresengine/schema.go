package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const schemaTemplate = `
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[1]s.books (
    isbn             text    NOT NULL,
    title            text    NOT NULL,
    total_copies     integer NOT NULL,
    available_copies integer NOT NULL,
    version          bigint  NOT NULL DEFAULT 1,
    CONSTRAINT books_pkey PRIMARY KEY (isbn),
    CONSTRAINT books_total_copies_positive CHECK (total_copies > 0),
    CONSTRAINT books_available_copies_in_range CHECK (available_copies >= 0 AND available_copies <= total_copies)
);

CREATE TABLE IF NOT EXISTS %[1]s.loans (
    id            uuid    NOT NULL,
    isbn          text    NOT NULL REFERENCES %[1]s.books (isbn),
    borrower_id   uuid    NOT NULL,
    issue_date    date    NOT NULL,
    due_date      date    NOT NULL,
    return_date   date,
    renewal_count integer NOT NULL DEFAULT 0,
    max_renewals  integer NOT NULL,
    issued_by     uuid,
    returned_to   uuid,
    version       bigint  NOT NULL DEFAULT 1,
    CONSTRAINT loans_pkey PRIMARY KEY (id),
    CONSTRAINT loans_renewal_count_in_range CHECK (renewal_count >= 0 AND renewal_count <= max_renewals),
    CONSTRAINT loans_return_not_before_issue CHECK (return_date IS NULL OR return_date >= issue_date)
);

CREATE UNIQUE INDEX IF NOT EXISTS loans_one_active_per_borrower
    ON %[1]s.loans (isbn, borrower_id) WHERE return_date IS NULL;

CREATE INDEX IF NOT EXISTS loans_active_by_due_date
    ON %[1]s.loans (due_date) WHERE return_date IS NULL;

CREATE TABLE IF NOT EXISTS %[1]s.fines (
    id                uuid    NOT NULL,
    loan_id           uuid    NOT NULL REFERENCES %[1]s.loans (id),
    amount            numeric NOT NULL,
    overdue_days      integer NOT NULL,
    status            text    NOT NULL,
    created_on        date    NOT NULL,
    payment_date      date,
    payment_method    text,
    payment_reference text,
    waived_by         uuid,
    waive_reason      text,
    version           bigint  NOT NULL DEFAULT 1,
    CONSTRAINT fines_pkey PRIMARY KEY (id),
    CONSTRAINT fines_loan_id_key UNIQUE (loan_id),
    CONSTRAINT fines_status_known CHECK (status IN ('PENDING', 'PAID', 'WAIVED')),
    CONSTRAINT fines_payment_method_known CHECK (payment_method IS NULL OR payment_method IN ('CASH', 'CARD', 'UPI'))
);

CREATE TABLE IF NOT EXISTS %[1]s.audit_log (
    id          bigserial   NOT NULL,
    actor_id    uuid,
    action      text        NOT NULL,
    entity_type text        NOT NULL,
    entity_id   uuid        NOT NULL,
    description text        NOT NULL,
    metadata    jsonb       NOT NULL DEFAULT '{}',
    recorded_at timestamptz NOT NULL,
    CONSTRAINT audit_log_pkey PRIMARY KEY (id)
);

CREATE INDEX IF NOT EXISTS audit_log_by_entity
    ON %[1]s.audit_log (entity_type, entity_id);

CREATE TABLE IF NOT EXISTS %[1]s.notifications (
    id           bigserial   NOT NULL,
    borrower_id  uuid        NOT NULL,
    type         text        NOT NULL,
    title        text        NOT NULL,
    message      text        NOT NULL,
    related_loan uuid,
    is_read      boolean     NOT NULL DEFAULT false,
    created_at   timestamptz NOT NULL DEFAULT now(),
    CONSTRAINT notifications_pkey PRIMARY KEY (id)
);

CREATE INDEX IF NOT EXISTS notifications_by_borrower
    ON %[1]s.notifications (borrower_id, created_at);
`

// Schema returns the DDL that creates all tables and indexes in the given schema.
// The statements are idempotent.
func Schema(schemaName string) string {
	return fmt.Sprintf(schemaTemplate, pgx.Identifier{schemaName}.Sanitize())
}

// Migrate applies Schema to the database of the Store.
func (s Store) Migrate(ctx context.Context) error {
	ddl := Schema(s.schemaName)

	if _, err := s.db.Exec(ctx, ddl); err != nil {
		if s.logger != nil {
			s.logger.Error(logMsgMigrationFailed, logAttrError, err.Error(), logAttrSchema, s.schemaName)
		}

		return errors.Join(shell.ErrSavingFailed, err)
	}

	if s.logger != nil {
		s.logger.Info(logMsgMigrated, logAttrSchema, s.schemaName)
	}

	return nil
}

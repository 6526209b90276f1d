// Command circulation runs a complete loan lifecycle against the memory or the PostgreSQL store:
// a book is added, lent, renewed and returned late, the fine is paid and a reminder sweep runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/addbook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/issuebook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/payfine"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/renewloan"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/returnbook"
	"github.com/AntonStoeckl/library-loan-ledger/ledger"
	"github.com/AntonStoeckl/library-loan-ledger/oteladapters"
	"github.com/AntonStoeckl/library-loan-ledger/reminders"
	"github.com/AntonStoeckl/library-loan-ledger/shell/config"
	"github.com/AntonStoeckl/library-loan-ledger/shell/outbox"
)

const (
	storageMemory   = "memory"
	storagePostgres = "postgres"

	demoISBN  = "978-0-13-468599-1"
	demoTitle = "The Pragmatic Programmer"
)

// Config holds the command line configuration.
type Config struct {
	Storage              string
	Adapter              string
	SchemaName           string
	PolicyPath           string
	ObservabilityEnabled bool
	SweepInterval        time.Duration
	Debug                bool
}

func main() {
	cfg := parseFlags()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg)

	policy := core.DefaultPolicy()
	if cfg.PolicyPath != "" {
		loaded, err := config.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			log.Fatalf("Failed to load lending policy: %v", err)
		}

		policy = loaded
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Storage, err)
	}
	defer closeStore()

	telemetry, err := newTelemetry(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create observability providers: %v", err)
	}
	defer telemetry.shutdown()

	relay := outbox.NewRelay(store, store, outbox.WithLogger(logger), outbox.WithContextualLogger(logger))

	loanLedger, err := ledger.New(
		ledger.WithPolicy(policy),
		ledger.WithNotificationSink(relay),
		ledger.WithAuditSink(relay),
		ledger.WithLogger(logger),
		ledger.WithContextualLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create loan ledger: %v", err)
	}

	handlers, err := newHandlers(store, loanLedger, telemetry, logger)
	if err != nil {
		log.Fatalf("Failed to create command handlers: %v", err)
	}

	sweeper, err := reminders.NewSweeper(
		relay,
		reminders.WithBookSource(store),
		reminders.WithFineCalculator(loanLedger.FineCalculator()),
		reminders.WithLogger(logger),
		reminders.WithContextualLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create reminder sweeper: %v", err)
	}

	logger.Info("circulation started",
		"storage", cfg.Storage,
		"loan_days", policy.LoanDays,
		"max_renewals", policy.MaxRenewals,
		"fine_per_day", policy.FinePerDay.String(),
		"observability", cfg.ObservabilityEnabled,
	)

	if _, err := runScenario(ctx, handlers, store, logger); err != nil {
		log.Fatalf("Scenario failed: %v", err)
	}

	if cfg.SweepInterval <= 0 {
		loans, loadErr := store.LoadActiveLoans(ctx)
		if loadErr != nil {
			log.Fatalf("Failed to load active loans: %v", loadErr)
		}

		report := sweeper.Sweep(ctx, loans, core.ToDate(time.Now()))
		logger.Info("reminder sweep finished", "overdue", report.Overdue, "due_soon", report.DueSoon, "failed", report.Failed)

		return
	}

	logger.Info("running reminder sweeps, press Ctrl+C to stop", "interval", cfg.SweepInterval.String())

	if err := sweeper.Run(ctx, cfg.SweepInterval, store); err != nil {
		log.Fatalf("Reminder sweeps failed: %v", err)
	}

	logger.Info("circulation stopped")
}

func parseFlags() Config {
	var (
		storage       = flag.String("storage", storageMemory, "Storage engine: memory or postgres")
		adapter       = flag.String("adapter", "pgx.pool", "PostgreSQL adapter: pgx.pool, sql.db or sqlx.db")
		schemaName    = flag.String("schema", "public", "PostgreSQL schema name")
		policyPath    = flag.String("policy", "", "Path to a YAML lending policy (defaults apply if empty)")
		observability = flag.Bool("observability-enabled", false, "Enable OpenTelemetry metrics and tracing")
		sweepInterval = flag.Duration("sweep-interval", 0, "Interval of reminder sweeps, a single sweep if 0")
		debug         = flag.Bool("debug", false, "Log SQL statements and other debug output")
	)

	flag.Parse()

	return Config{
		Storage:              strings.ToLower(*storage),
		Adapter:              strings.ToLower(*adapter),
		SchemaName:           *schemaName,
		PolicyPath:           *policyPath,
		ObservabilityEnabled: *observability,
		SweepInterval:        *sweepInterval,
		Debug:                *debug,
	}
}

func newLogger(cfg Config) *oteladapters.SlogBridgeLogger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	return oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	)
}

// runScenario walks one borrower through the whole lifecycle. Dates lie in the past so the return is late.
// It returns the ID of the returned loan.
func runScenario(
	ctx context.Context,
	handlers Handlers,
	store Store,
	logger *oteladapters.SlogBridgeLogger,
) (core.LoanID, error) {

	today := core.ToDate(time.Now())
	librarian := core.BuildActor(uuid.New(), core.RoleLibrarian)
	borrower := core.BuildActor(uuid.New(), core.RoleStudent)

	if _, err := handlers.AddBook.Handle(ctx, addbook.BuildCommand(demoISBN, demoTitle, 2)); err != nil {
		return uuid.Nil, fmt.Errorf("adding book: %w", err)
	}

	issue := issuebook.BuildCommand(uuid.Nil, demoISBN, borrower.ID, today.AddDate(0, 0, -30), 0, librarian)
	if _, err := handlers.IssueBook.Handle(ctx, issue); err != nil {
		return uuid.Nil, fmt.Errorf("issuing book: %w", err)
	}

	if _, err := handlers.RenewLoan.Handle(ctx, renewloan.BuildCommand(issue.LoanID, 0, borrower)); err != nil {
		return uuid.Nil, fmt.Errorf("renewing loan: %w", err)
	}

	if _, err := handlers.ReturnBook.Handle(ctx, returnbook.BuildCommand(issue.LoanID, today, librarian)); err != nil {
		return uuid.Nil, fmt.Errorf("returning book: %w", err)
	}

	fine, err := store.LoadFineOfLoan(ctx, issue.LoanID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading fine: %w", err)
	}

	logger.Info("fine assessed", "fine_id", fine.ID.String(), "overdue_days", fine.OverdueDays, "amount", fine.Amount.StringFixed(2))

	if _, err := handlers.PayFine.Handle(ctx, payfine.BuildCommand(fine.ID, core.PaymentCard, "POS-0001", today, librarian)); err != nil {
		return uuid.Nil, fmt.Errorf("paying fine: %w", err)
	}

	// a second loan that is due tomorrow, so the sweep has something to remind of
	dueSoon := issuebook.BuildCommand(uuid.Nil, demoISBN, uuid.New(), today.AddDate(0, 0, -13), 14, librarian)
	if _, err := handlers.IssueBook.Handle(ctx, dueSoon); err != nil {
		return uuid.Nil, fmt.Errorf("issuing second book: %w", err)
	}

	notifications, err := store.LoadNotificationsOf(ctx, borrower.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading notifications: %w", err)
	}

	for _, notification := range notifications {
		logger.Info("notification", "type", string(notification.Type), "title", notification.Title, "message", notification.Message)
	}

	trail, err := store.LoadAuditTrail(ctx, issue.LoanID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading audit trail: %w", err)
	}

	for _, record := range trail {
		logger.Info("audit",
			"action", string(record.Entry.Action),
			"description", record.Entry.Description,
			"command_type", record.Metadata.CommandType,
			"correlation_id", record.Metadata.CorrelationID,
		)
	}

	return issue.LoanID, nil
}

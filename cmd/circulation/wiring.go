package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/addbook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/issuebook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/payfine"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/renewloan"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/returnbook"
	"github.com/AntonStoeckl/library-loan-ledger/features/command/waivefine"
	"github.com/AntonStoeckl/library-loan-ledger/ledger"
	"github.com/AntonStoeckl/library-loan-ledger/memoryengine"
	"github.com/AntonStoeckl/library-loan-ledger/oteladapters"
	"github.com/AntonStoeckl/library-loan-ledger/postgresengine"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
	"github.com/AntonStoeckl/library-loan-ledger/shell/config"
	"github.com/AntonStoeckl/library-loan-ledger/shell/observable"
)

const (
	serviceName    = "library-loan-ledger"
	serviceVersion = "0.1.0"

	adapterPGXPool = "pgx.pool"
	adapterSQLDB   = "sql.db"
	adapterSQLXDB  = "sqlx.db"
)

// Store is what the circulation process needs from a storage engine.
// Both memoryengine and postgresengine provide it.
type Store interface {
	addbook.Store
	issuebook.Store
	renewloan.Store
	returnbook.Store
	payfine.Store
	core.NotificationSink
	core.AuditSink
	LoadActiveLoans(ctx context.Context) (core.Loans, error)
	LoadFineOfLoan(ctx context.Context, loanID core.LoanID) (core.Fine, error)
	LoadNotificationsOf(ctx context.Context, borrowerID core.BorrowerID) ([]core.Notification, error)
	LoadAuditTrail(ctx context.Context, entityID uuid.UUID) ([]shell.AuditRecord, error)
}

// Handlers holds the observable command handlers of all use cases.
type Handlers struct {
	AddBook    shell.CoreCommandHandler[addbook.Command]
	IssueBook  shell.CoreCommandHandler[issuebook.Command]
	RenewLoan  shell.CoreCommandHandler[renewloan.Command]
	ReturnBook shell.CoreCommandHandler[returnbook.Command]
	PayFine    shell.CoreCommandHandler[payfine.Command]
	WaiveFine  shell.CoreCommandHandler[waivefine.Command]
}

func openStore(ctx context.Context, cfg Config, logger shell.Logger) (Store, func(), error) {
	switch cfg.Storage {
	case storageMemory:
		store, err := memoryengine.NewStore(memoryengine.WithLogger(logger))
		return store, func() {}, err

	case storagePostgres:
		return openPostgresStore(ctx, cfg, logger)

	default:
		return nil, nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}

func openPostgresStore(ctx context.Context, cfg Config, logger shell.Logger) (Store, func(), error) {
	dsn := config.PostgresDSN()
	if dsn == "" {
		return nil, nil, fmt.Errorf("%s is not set", config.DSNEnvVar)
	}

	options := []postgresengine.Option{
		postgresengine.WithSchemaName(cfg.SchemaName),
		postgresengine.WithLogger(logger),
	}

	var (
		store    postgresengine.Store
		closeDB  func()
		storeErr error
	)

	switch cfg.Adapter {
	case adapterPGXPool:
		pool, err := config.PostgresPGXPool(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}

		closeDB = pool.Close
		store, storeErr = postgresengine.NewStoreFromPGXPool(pool, options...)

	case adapterSQLDB:
		db, err := config.PostgresSQLDB(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}

		closeDB = func() { _ = db.Close() }
		store, storeErr = postgresengine.NewStoreFromSQLDB(db, options...)

	case adapterSQLXDB:
		db, err := config.PostgresSQLX(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}

		closeDB = func() { _ = db.Close() }
		store, storeErr = postgresengine.NewStoreFromSQLX(db, options...)

	default:
		return nil, nil, fmt.Errorf("unsupported adapter %q", cfg.Adapter)
	}

	if storeErr != nil {
		closeDB()
		return nil, nil, storeErr
	}

	if err := store.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}

	return store, closeDB, nil
}

// telemetry holds the OpenTelemetry adapters. All fields are nil if observability is disabled.
type telemetry struct {
	providers *config.ObservabilityProviders
	spans     *tracetest.InMemoryExporter
	reader    *sdkmetric.ManualReader
	metrics   *oteladapters.MetricsCollector
	tracing   *oteladapters.TracingCollector
	logger    *slog.Logger
}

func newTelemetry(ctx context.Context, cfg Config) (*telemetry, error) {
	t := &telemetry{logger: slog.Default()}

	if !cfg.ObservabilityEnabled {
		return t, nil
	}

	t.spans = tracetest.NewInMemoryExporter()
	t.reader = sdkmetric.NewManualReader()

	providers, err := config.NewObservabilityProviders(ctx, serviceName, serviceVersion, t.spans, t.reader)
	if err != nil {
		return nil, err
	}

	t.providers = providers
	t.metrics = oteladapters.NewMetricsCollector(otel.Meter(serviceName))
	t.tracing = oteladapters.NewTracingCollector(otel.Tracer(serviceName))

	return t, nil
}

// shutdown reports what was collected and shuts the providers down.
func (t *telemetry) shutdown() {
	if t.providers == nil {
		return
	}

	var collected metricdata.ResourceMetrics
	if err := t.reader.Collect(context.Background(), &collected); err != nil {
		t.logger.Warn("collecting metrics failed", "error", err.Error())
	}

	instruments := 0
	for _, scope := range collected.ScopeMetrics {
		instruments += len(scope.Metrics)
	}

	t.logger.Info("telemetry collected", "spans", len(t.spans.GetSpans()), "instruments", instruments)

	if err := t.providers.Shutdown(); err != nil {
		t.logger.Warn("shutting down observability providers failed", "error", err.Error())
	}
}

func newHandlers(
	store Store,
	loanLedger *ledger.Ledger,
	telemetry *telemetry,
	logger *oteladapters.SlogBridgeLogger,
) (Handlers, error) {

	var (
		handlers Handlers
		err      error
	)

	if handlers.AddBook, err = wrap[addbook.Command](addbook.NewCommandHandler(store), telemetry, logger); err != nil {
		return Handlers{}, err
	}

	if handlers.IssueBook, err = wrap[issuebook.Command](issuebook.NewCommandHandler(store, loanLedger), telemetry, logger); err != nil {
		return Handlers{}, err
	}

	if handlers.RenewLoan, err = wrap[renewloan.Command](renewloan.NewCommandHandler(store, loanLedger), telemetry, logger); err != nil {
		return Handlers{}, err
	}

	if handlers.ReturnBook, err = wrap[returnbook.Command](returnbook.NewCommandHandler(store, loanLedger), telemetry, logger); err != nil {
		return Handlers{}, err
	}

	calculator := loanLedger.FineCalculator()

	if handlers.PayFine, err = wrap[payfine.Command](payfine.NewCommandHandler(store, calculator), telemetry, logger); err != nil {
		return Handlers{}, err
	}

	if handlers.WaiveFine, err = wrap[waivefine.Command](waivefine.NewCommandHandler(store, calculator), telemetry, logger); err != nil {
		return Handlers{}, err
	}

	return handlers, nil
}

func wrap[C shell.Command](
	handler shell.CoreCommandHandler[C],
	telemetry *telemetry,
	logger *oteladapters.SlogBridgeLogger,
) (shell.CoreCommandHandler[C], error) {

	options := []observable.CommandOption[C]{
		observable.WithCommandLogging[C](logger),
		observable.WithCommandContextualLogging[C](logger),
	}

	if telemetry.metrics != nil {
		options = append(options, observable.WithCommandMetrics[C](telemetry.metrics))
	}

	if telemetry.tracing != nil {
		options = append(options, observable.WithCommandTracing[C](telemetry.tracing))
	}

	return observable.NewCommandWrapper(handler, options...)
}

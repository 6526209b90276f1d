// Package shell provides the infrastructure glue around the loan lifecycle of a public library.
//
// It contains the observability contracts (logging, metrics, tracing) and helpers,
// the retry logic for optimistic concurrency conflicts, the HandlerResult returned by command handlers,
// the infrastructure errors shared by the storage engines, and the JSON mapping of audit metadata.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell

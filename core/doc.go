// Package core contains the domain model for the example:
// Book loans in a public library.
//
// It defines the records the loan lifecycle operates on (Book, Loan, Fine), the actors that trigger
// lifecycle transitions, the lending policy, and the sentinel errors for rejected transitions.
// It also declares the boundary contracts towards notification delivery and audit logging.
//
// Nothing in this package performs I/O. Loading and saving records is the job of the storage engines,
// deciding about transitions is the job of the ledger and fines packages.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core

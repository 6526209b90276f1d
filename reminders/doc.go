// Package reminders notifies borrowers about loans that are due soon or overdue.
//
// A Sweeper checks a set of active loans against a date and sends one DUE_SOON or OVERDUE
// notification per matching loan; overdue notifications carry the fine accrued so far.
// Run repeats the sweep on a fixed interval until its context is canceled.
package reminders

package core

import (
	"time"

	"github.com/google/uuid"
)

// Instead of implementing full value objects, I'm using some alias types and helper methods here ...

// ISBNString represents the catalog code of a book
type ISBNString = string

// LoanID identifies a single loan
type LoanID = uuid.UUID

// FineID identifies a single fine
type FineID = uuid.UUID

// BorrowerID identifies the reader who borrows books
type BorrowerID = uuid.UUID

// Date is a calendar date without time-of-day, represented as UTC midnight
type Date = time.Time

const hoursPerDay = 24

// ToDate converts a time to a Date by dropping the time-of-day in the location of t.
func ToDate(t time.Time) Date {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a Date by the given number of calendar days.
func AddDays(d Date, days int) Date {
	return ToDate(d).AddDate(0, 0, days)
}

// DaysBetween returns the number of whole calendar days from -> to, negative if to is before from.
func DaysBetween(from Date, to Date) int {
	return int(ToDate(to).Sub(ToDate(from)).Hours() / hoursPerDay)
}

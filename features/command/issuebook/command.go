package issuebook

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-loan-ledger/core"
)

const (
	commandType = "IssueBook"
)

// Command represents the intent to lend a copy of a book to a borrower.
type Command struct {
	LoanID     core.LoanID
	ISBN       core.ISBNString
	BorrowerID core.BorrowerID
	IssueDate  core.Date
	LoanDays   int
	Actor      core.Actor
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. A nil loanID is replaced by a fresh one,
// so the caller always knows which loan the command creates. A zero loanDays means the policy default.
func BuildCommand(
	loanID core.LoanID,
	isbn core.ISBNString,
	borrowerID core.BorrowerID,
	issueDate time.Time,
	loanDays int,
	actor core.Actor,
) Command {

	if loanID == uuid.Nil {
		loanID = uuid.New()
	}

	return Command{
		LoanID:     loanID,
		ISBN:       isbn,
		BorrowerID: borrowerID,
		IssueDate:  core.ToDate(issueDate),
		LoanDays:   loanDays,
		Actor:      actor,
	}
}

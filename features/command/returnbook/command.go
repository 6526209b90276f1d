package returnbook

import (
	"time"

	"github.com/AntonStoeckl/library-loan-ledger/core"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent to take back a lent copy.
type Command struct {
	LoanID     core.LoanID
	ReturnDate core.Date
	Actor      core.Actor
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID core.LoanID, returnDate time.Time, actor core.Actor) Command {
	return Command{
		LoanID:     loanID,
		ReturnDate: core.ToDate(returnDate),
		Actor:      actor,
	}
}

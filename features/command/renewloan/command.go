package renewloan

import (
	"github.com/AntonStoeckl/library-loan-ledger/core"
)

const (
	commandType = "RenewLoan"
)

// Command represents the intent to extend the due date of a loan.
// A zero ExtensionDays means the policy default.
type Command struct {
	LoanID        core.LoanID
	ExtensionDays int
	Actor         core.Actor
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID core.LoanID, extensionDays int, actor core.Actor) Command {
	return Command{
		LoanID:        loanID,
		ExtensionDays: extensionDays,
		Actor:         actor,
	}
}

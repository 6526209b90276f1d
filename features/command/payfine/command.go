package payfine

import (
	"time"

	"github.com/AntonStoeckl/library-loan-ledger/core"
)

const (
	commandType = "PayFine"
)

// Command represents the intent to pay a fine.
type Command struct {
	FineID    core.FineID
	Method    core.PaymentMethod
	Reference string
	PaidOn    core.Date
	Actor     core.Actor
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters. A zero paidOn means today.
func BuildCommand(
	fineID core.FineID,
	method core.PaymentMethod,
	reference string,
	paidOn time.Time,
	actor core.Actor,
) Command {

	command := Command{
		FineID:    fineID,
		Method:    method,
		Reference: reference,
		Actor:     actor,
	}

	if !paidOn.IsZero() {
		command.PaidOn = core.ToDate(paidOn)
	}

	return command
}

package waivefine

import (
	"github.com/AntonStoeckl/library-loan-ledger/core"
)

const (
	commandType = "WaiveFine"
)

// Command represents the intent to waive a fine.
type Command struct {
	FineID core.FineID
	Reason string
	Actor  core.Actor
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(fineID core.FineID, reason string, actor core.Actor) Command {
	return Command{
		FineID: fineID,
		Reason: reason,
		Actor:  actor,
	}
}

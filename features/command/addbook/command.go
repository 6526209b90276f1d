package addbook

import (
	"github.com/AntonStoeckl/library-loan-ledger/core"
)

const (
	commandType = "AddBook"
)

// Command represents the intent to add a book to the catalog.
type Command struct {
	ISBN        core.ISBNString
	Title       string
	TotalCopies int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(isbn core.ISBNString, title string, totalCopies int) Command {
	return Command{
		ISBN:        isbn,
		Title:       title,
		TotalCopies: totalCopies,
	}
}

package core

// Book is an inventory unit of the catalog, identified by its ISBN.
//
// AvailableCopies counts the physical copies that are not currently on loan.
// It must stay within 0 <= AvailableCopies <= TotalCopies and is only changed by issuing and returning loans.
type Book struct {
	ISBN            ISBNString
	Title           string
	TotalCopies     int
	AvailableCopies int
	Version         uint
}

// BuildBook creates a Book with all copies available.
func BuildBook(isbn ISBNString, title string, totalCopies int) Book {
	return Book{
		ISBN:            isbn,
		Title:           title,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}
}

// IsAvailable returns true if at least one copy can be issued.
func (b Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// CopiesOnLoan returns the number of copies that are currently issued.
func (b Book) CopiesOnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}

// Validate checks the inventory invariant.
func (b Book) Validate() error {
	if b.ISBN == "" || b.TotalCopies < 1 || b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return ErrInvalidInventory
	}

	return nil
}

package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/library-loan-ledger/core"
	"github.com/AntonStoeckl/library-loan-ledger/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

const (
	colISBN            = "isbn"
	colTitle           = "title"
	colTotalCopies     = "total_copies"
	colAvailableCopies = "available_copies"
	colVersion         = "version"
)

// AddBook inserts a new book into the catalog with version 1.
// It fails with shell.ErrBookAlreadyExists if the ISBN is taken.
func (s Store) AddBook(ctx context.Context, book core.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}

	sqlQuery, buildErr := s.buildInsertBookQuery(book)
	if buildErr != nil {
		return buildErr
	}

	if _, execErr := s.execStatement(ctx, s.db, sqlQuery, tableBooks); execErr != nil {
		return mapUniqueViolation(execErr)
	}

	return nil
}

// LoadBook reads the book with the given ISBN or fails with shell.ErrBookNotFound.
func (s Store) LoadBook(ctx context.Context, isbn core.ISBNString) (core.Book, error) {
	sqlQuery, buildErr := s.toSQL(
		s.builder().
			From(s.table(tableBooks)).
			Select(colISBN, colTitle, colTotalCopies, colAvailableCopies, colVersion).
			Where(goqu.C(colISBN).Eq(isbn)),
	)
	if buildErr != nil {
		return core.Book{}, buildErr
	}

	var book core.Book
	found := false

	queryErr := s.queryRows(ctx, s.db, sqlQuery, func(rows adapters.DBRows) error {
		found = true
		return rows.Scan(&book.ISBN, &book.Title, &book.TotalCopies, &book.AvailableCopies, &book.Version)
	})
	if queryErr != nil {
		return core.Book{}, queryErr
	}

	if !found {
		return core.Book{}, shell.ErrBookNotFound
	}

	return book, nil
}

func (s Store) buildInsertBookQuery(book core.Book) (sqlQueryString, error) {
	return s.toSQL(
		s.builder().
			Insert(s.table(tableBooks)).
			Rows(goqu.Record{
				colISBN:            book.ISBN,
				colTitle:           book.Title,
				colTotalCopies:     book.TotalCopies,
				colAvailableCopies: book.AvailableCopies,
				colVersion:         1,
			}),
	)
}

// buildUpdateInventoryQuery writes the available copies of a book that was loaded with book.Version.
func (s Store) buildUpdateInventoryQuery(book core.Book) *goqu.UpdateDataset {
	return s.builder().
		Update(s.table(tableBooks)).
		Set(goqu.Record{
			colAvailableCopies: book.AvailableCopies,
			colVersion:         goqu.L(bumpVersion),
		}).
		Where(
			goqu.C(colISBN).Eq(book.ISBN),
			goqu.C(colVersion).Eq(book.Version),
		)
}

func (s Store) saveInventory(ctx context.Context, tx adapters.DBTx, book core.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}

	return s.execVersionedUpdate(ctx, tx, s.buildUpdateInventoryQuery(book), tableBooks)
}

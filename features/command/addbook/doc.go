// Package addbook implements the Add Book use case: a title enters the catalog with all its copies on the shelf.
//
// Adding the same book again with the same title and copy count is idempotent.
package addbook

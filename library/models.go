package library

import (
	"errors"
	"fmt"
)

// ErrInvalidBook is returned when a write is handed a nil book or a batch with a
// nil entry. The transaction carrying the write is rolled back.
var ErrInvalidBook = errors.New("invalid book: nil entry")

// ErrTxInProgress is returned by Database calls made while a Tx is open. The
// transaction holds the only connection; use the Tx's own methods instead.
var ErrTxInProgress = errors.New("transaction in progress")

// Book is a row of the BOOKS table. The ID is assigned by the database on insert;
// the zero value is the empty book returned for missing ids.
type Book struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Author    string `json:"author" yaml:"author"`
	PrintYear int    `json:"print_year" yaml:"print_year"`
	Read      bool   `json:"read" yaml:"read"`
}

// Validate rejects nil entries before any statement is issued, which keeps each
// batch all-or-nothing.
func Validate(books []*Book) error {
	for i, b := range books {
		if b == nil {
			return fmt.Errorf("entry %d: %w", i, ErrInvalidBook)
		}
	}
	return nil
}

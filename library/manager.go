package library

import (
	"context"
	"fmt"
)

// BookStore is the storage accessor the BookManager delegates to.
type BookStore interface {
	Add(ctx context.Context, book *Book) error
	AddAll(ctx context.Context, books []*Book) error
	GetByID(ctx context.Context, id int64) (Book, error)
	GetByName(ctx context.Context, name string) ([]Book, error)
	GetByAuthor(ctx context.Context, author string) ([]Book, error)
	GetByPrintYear(ctx context.Context, year int) ([]Book, error)
	GetByIsRead(ctx context.Context, read bool) ([]Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, book *Book) error
	UpdateAll(ctx context.Context, books []*Book) error
	Remove(ctx context.Context, book *Book) error
	RemoveAll(ctx context.Context, books []*Book) error
	InTx(ctx context.Context, fn func(tx *Tx) error) error
	Reset(ctx context.Context) error
	Close() error
}

var _ BookStore = (*Database)(nil)

// BookManager is a thin façade over a BookStore, keeping CLI code simple.
// Every method forwards its arguments and results unchanged.
type BookManager struct {
	store BookStore
}

func NewBookManager(store BookStore) *BookManager {
	return &BookManager{store: store}
}

// OpenBookManager opens (or creates) the database and wraps it.
func OpenBookManager(driver, source string) (*BookManager, error) {
	db, err := Open(driver, source)
	if err != nil {
		return nil, err
	}
	return &BookManager{store: db}, nil
}

func (bm *BookManager) Store() BookStore         { return bm.store }
func (bm *BookManager) SetStore(store BookStore) { bm.store = store }

// Close closes the underlying store.
func (bm *BookManager) Close() error { return bm.store.Close() }

// ------------------ Writes ------------------

func (bm *BookManager) Add(ctx context.Context, book *Book) error {
	return bm.store.Add(ctx, book)
}

func (bm *BookManager) AddAll(ctx context.Context, books []*Book) error {
	return bm.store.AddAll(ctx, books)
}

func (bm *BookManager) Update(ctx context.Context, book *Book) error {
	return bm.store.Update(ctx, book)
}

func (bm *BookManager) UpdateAll(ctx context.Context, books []*Book) error {
	return bm.store.UpdateAll(ctx, books)
}

func (bm *BookManager) Remove(ctx context.Context, book *Book) error {
	return bm.store.Remove(ctx, book)
}

func (bm *BookManager) RemoveAll(ctx context.Context, books []*Book) error {
	return bm.store.RemoveAll(ctx, books)
}

func (bm *BookManager) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	return bm.store.InTx(ctx, fn)
}

func (bm *BookManager) Reset(ctx context.Context) error { return bm.store.Reset(ctx) }

// ------------------ Reads ------------------

func (bm *BookManager) GetByID(ctx context.Context, id int64) (Book, error) {
	return bm.store.GetByID(ctx, id)
}

func (bm *BookManager) GetByName(ctx context.Context, name string) ([]Book, error) {
	return bm.store.GetByName(ctx, name)
}

func (bm *BookManager) GetByAuthor(ctx context.Context, author string) ([]Book, error) {
	return bm.store.GetByAuthor(ctx, author)
}

func (bm *BookManager) GetByPrintYear(ctx context.Context, year int) ([]Book, error) {
	return bm.store.GetByPrintYear(ctx, year)
}

func (bm *BookManager) GetByIsRead(ctx context.Context, read bool) ([]Book, error) {
	return bm.store.GetByIsRead(ctx, read)
}

func (bm *BookManager) GetAll(ctx context.Context) ([]Book, error) {
	return bm.store.GetAll(ctx)
}

// ------------------ Utilities ------------------

// BookHeader is the column header matching PrettyBook.
var BookHeader = fmt.Sprintf("%-5s %-30s %-25s %-6s %s", "ID", "NAME", "AUTHOR", "YEAR", "READ")

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%-5d %-30s %-25s %-6d %t", b.ID, b.Name, b.Author, b.PrintYear, b.Read)
}

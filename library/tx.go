package library

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Tx is a caller-owned write transaction. Commit and Rollback are the only ways
// its writes become visible or are discarded; Rollback after Commit is a no-op,
// so it is safe to defer.
type Tx struct {
	finder

	tx   *sql.Tx
	db   *Database
	id   string
	done bool
}

// Begin starts a write transaction and takes the connection out of auto-commit.
// Only one transaction may be open at a time; reads made while it is open go
// through the Tx and see its uncommitted writes.
func (d *Database) Begin(ctx context.Context) (*Tx, error) {
	if d.tx != nil {
		return nil, fmt.Errorf("begin transaction: %w", ErrTxInProgress)
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	d.autoCommit = false

	id := uuid.Must(uuid.NewV7()).String()
	slog.Debug("transaction started", "tx", id)
	d.tx = &Tx{finder: finder{q: tx, dialect: d.dialect}, tx: tx, db: d, id: id}
	return d.tx, nil
}

// ID identifies the transaction in logs.
func (t *Tx) ID() string { return t.id }

// Commit makes every write of the transaction durable.
func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.end()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", t.id, err)
	}
	slog.Debug("transaction committed", "tx", t.id)
	return nil
}

// Rollback discards every write of the transaction.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.end()
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback transaction %s: %w", t.id, err)
	}
	slog.Debug("transaction rolled back", "tx", t.id)
	return nil
}

func (t *Tx) end() {
	t.done = true
	if t.db.tx == t {
		t.db.tx = nil
	}
}

func (t *Tx) Add(ctx context.Context, book *Book) error {
	if book == nil {
		return ErrInvalidBook
	}
	return t.AddAll(ctx, []*Book{book})
}

// AddAll inserts the books and assigns their IDs once every insert succeeded.
// Nothing is issued when an entry is nil.
func (t *Tx) AddAll(ctx context.Context, books []*Book) error {
	if err := Validate(books); err != nil {
		return err
	}

	stmt := t.tx.StmtContext(ctx, t.db.insertStmt)
	ids := make([]int64, len(books))
	for i, b := range books {
		if err := stmt.QueryRowContext(ctx, b.Name, b.Author, b.PrintYear, b.Read).Scan(&ids[i]); err != nil {
			return fmt.Errorf("insert book %q: %w", b.Name, err)
		}
	}
	for i, b := range books {
		b.ID = ids[i]
	}
	return nil
}

func (t *Tx) Update(ctx context.Context, book *Book) error {
	if book == nil {
		return ErrInvalidBook
	}
	return t.UpdateAll(ctx, []*Book{book})
}

// UpdateAll overwrites the rows matching each book's ID. Books whose ID is not
// stored are skipped.
func (t *Tx) UpdateAll(ctx context.Context, books []*Book) error {
	if err := Validate(books); err != nil {
		return err
	}

	stmt := t.tx.StmtContext(ctx, t.db.updateStmt)
	for _, b := range books {
		if _, err := stmt.ExecContext(ctx, b.Name, b.Author, b.PrintYear, b.Read, b.ID); err != nil {
			return fmt.Errorf("update book %d: %w", b.ID, err)
		}
	}
	return nil
}

func (t *Tx) Remove(ctx context.Context, book *Book) error {
	if book == nil {
		return ErrInvalidBook
	}
	return t.RemoveAll(ctx, []*Book{book})
}

// RemoveAll deletes the rows matching each book's ID.
func (t *Tx) RemoveAll(ctx context.Context, books []*Book) error {
	if err := Validate(books); err != nil {
		return err
	}

	stmt := t.tx.StmtContext(ctx, t.db.deleteStmt)
	for _, b := range books {
		if _, err := stmt.ExecContext(ctx, b.ID); err != nil {
			return fmt.Errorf("remove book %d: %w", b.ID, err)
		}
	}
	return nil
}

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Database is the storage accessor for the BOOKS table. It keeps a single shared
// connection; writes go through explicit transactions (see Tx), reads run in
// auto-commit mode.
type Database struct {
	db      *sql.DB
	dialect dialect

	// autoCommit mirrors the mode the connection was last used in: true after a
	// read, false once a write transaction has been started.
	autoCommit bool

	// tx is the open transaction, if any. It holds the only connection.
	tx *Tx

	insertStmt *sql.Stmt
	updateStmt *sql.Stmt
	deleteStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath with the default
// cgo driver.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(DriverSQLite3, dbPath)
}

// Open connects using one of the supported drivers, applies the schema and
// prepares the write statements. For the SQLite drivers source is a file path
// (or a full "file:" DSN); for pgx it is a PostgreSQL connection string.
func Open(driver, source string) (*Database, error) {
	dl, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists so first-run succeeds.
	if !dl.dollar && !strings.HasPrefix(source, "file:") {
		if dir := filepath.Dir(source); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open(dl.driver, dl.dsn(source))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	// One shared connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyMigrations(db, dl); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db, dialect: dl, autoCommit: true}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}

	slog.Debug("database initialized", "driver", driver)
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.insertStmt, d.updateStmt, d.deleteStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// Ping verifies the connection is still usable.
func (d *Database) Ping(ctx context.Context) error {
	if d.tx != nil {
		return fmt.Errorf("ping: %w", ErrTxInProgress)
	}
	return d.db.PingContext(ctx)
}

// AutoCommit reports whether the connection is in auto-commit mode, i.e. the
// last operation was a read rather than a write transaction.
func (d *Database) AutoCommit() bool {
	return d.autoCommit
}

// Driver returns the database/sql driver name the Database was opened with.
func (d *Database) Driver() string {
	return d.dialect.driver
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB, dl dialect) error {
	for _, pragma := range dl.pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS META (KEY TEXT PRIMARY KEY, VALUE TEXT);`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	var current int
	err := db.QueryRow(`SELECT VALUE FROM META WHERE KEY='schema_version';`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range dl.schema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(dl.rebind(`INSERT INTO META(KEY,VALUE) VALUES('schema_version',?)
            ON CONFLICT(KEY) DO UPDATE SET VALUE=excluded.VALUE;`), strconv.Itoa(schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertStmt, err = d.db.Prepare(d.dialect.rebind(
		`INSERT INTO BOOKS(NAME,AUTHOR,PRINT_YEAR,IS_READ) VALUES(?,?,?,?) RETURNING ID`)); err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	if d.updateStmt, err = d.db.Prepare(d.dialect.rebind(
		`UPDATE BOOKS SET NAME=?, AUTHOR=?, PRINT_YEAR=?, IS_READ=? WHERE ID=?`)); err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	if d.deleteStmt, err = d.db.Prepare(d.dialect.rebind(
		`DELETE FROM BOOKS WHERE ID=?`)); err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

const selectBooks = `SELECT ID,NAME,AUTHOR,PRINT_YEAR,IS_READ FROM BOOKS`

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner, b *Book) error {
	return s.Scan(&b.ID, &b.Name, &b.Author, &b.PrintYear, &b.Read)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// finder runs the read queries over a connection or an open transaction.
type finder struct {
	q       querier
	dialect dialect
}

// GetByID returns the book with the given id, or an empty Book when there is none.
func (f finder) GetByID(ctx context.Context, id int64) (Book, error) {
	var b Book
	err := scanBook(f.q.QueryRowContext(ctx, f.dialect.rebind(selectBooks+` WHERE ID=?`), id), &b)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, nil
	}
	if err != nil {
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

func (f finder) GetByName(ctx context.Context, name string) ([]Book, error) {
	return f.queryBooks(ctx, "get books by name", selectBooks+` WHERE NAME=? ORDER BY ID`, name)
}

func (f finder) GetByAuthor(ctx context.Context, author string) ([]Book, error) {
	return f.queryBooks(ctx, "get books by author", selectBooks+` WHERE AUTHOR=? ORDER BY ID`, author)
}

func (f finder) GetByPrintYear(ctx context.Context, year int) ([]Book, error) {
	return f.queryBooks(ctx, "get books by print year", selectBooks+` WHERE PRINT_YEAR=? ORDER BY ID`, year)
}

func (f finder) GetByIsRead(ctx context.Context, read bool) ([]Book, error) {
	return f.queryBooks(ctx, "get books by read flag", selectBooks+` WHERE IS_READ=? ORDER BY ID`, read)
}

// GetAll returns every stored book ordered by id.
func (f finder) GetAll(ctx context.Context) ([]Book, error) {
	return f.queryBooks(ctx, "get all books", selectBooks+` ORDER BY ID`)
}

// queryBooks never returns a nil slice on success.
func (f finder) queryBooks(ctx context.Context, op, query string, args ...any) ([]Book, error) {
	rows, err := f.q.QueryContext(ctx, f.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return books, nil
}

// reader switches to auto-commit mode for a read, failing fast while a Tx holds
// the connection.
func (d *Database) reader() (finder, error) {
	if d.tx != nil {
		return finder{}, fmt.Errorf("read: %w", ErrTxInProgress)
	}
	d.autoCommit = true
	return finder{q: d.db, dialect: d.dialect}, nil
}

func (d *Database) GetByID(ctx context.Context, id int64) (Book, error) {
	f, err := d.reader()
	if err != nil {
		return Book{}, err
	}
	return f.GetByID(ctx, id)
}

func (d *Database) GetByName(ctx context.Context, name string) ([]Book, error) {
	f, err := d.reader()
	if err != nil {
		return nil, err
	}
	return f.GetByName(ctx, name)
}

func (d *Database) GetByAuthor(ctx context.Context, author string) ([]Book, error) {
	f, err := d.reader()
	if err != nil {
		return nil, err
	}
	return f.GetByAuthor(ctx, author)
}

func (d *Database) GetByPrintYear(ctx context.Context, year int) ([]Book, error) {
	f, err := d.reader()
	if err != nil {
		return nil, err
	}
	return f.GetByPrintYear(ctx, year)
}

func (d *Database) GetByIsRead(ctx context.Context, read bool) ([]Book, error) {
	f, err := d.reader()
	if err != nil {
		return nil, err
	}
	return f.GetByIsRead(ctx, read)
}

func (d *Database) GetAll(ctx context.Context) ([]Book, error) {
	f, err := d.reader()
	if err != nil {
		return nil, err
	}
	return f.GetAll(ctx)
}

// ---------------------------------------------------------------------------
// Writes, each in its own transaction
// ---------------------------------------------------------------------------

// InTx runs fn inside a new transaction, committing when fn returns nil and
// rolling back otherwise. fn must only use the Tx it is given; Database calls
// made from fn fail with ErrTxInProgress.
func (d *Database) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		slog.Debug("rolling back transaction", "tx", tx.ID(), "error", err)
		return err
	}
	return tx.Commit()
}

// Add inserts book and sets its ID. A nil book leaves the table untouched.
func (d *Database) Add(ctx context.Context, book *Book) error {
	return d.InTx(ctx, func(tx *Tx) error { return tx.Add(ctx, book) })
}

// AddAll inserts all books in one transaction, or none of them.
func (d *Database) AddAll(ctx context.Context, books []*Book) error {
	return d.InTx(ctx, func(tx *Tx) error { return tx.AddAll(ctx, books) })
}

func (d *Database) Update(ctx context.Context, book *Book) error {
	return d.InTx(ctx, func(tx *Tx) error { return tx.Update(ctx, book) })
}

func (d *Database) UpdateAll(ctx context.Context, books []*Book) error {
	return d.InTx(ctx, func(tx *Tx) error { return tx.UpdateAll(ctx, books) })
}

func (d *Database) Remove(ctx context.Context, book *Book) error {
	return d.InTx(ctx, func(tx *Tx) error { return tx.Remove(ctx, book) })
}

func (d *Database) RemoveAll(ctx context.Context, books []*Book) error {
	return d.InTx(ctx, func(tx *Tx) error { return tx.RemoveAll(ctx, books) })
}

// Reset deletes every book and restarts id assignment at 1.
func (d *Database) Reset(ctx context.Context) error {
	return d.InTx(ctx, func(tx *Tx) error {
		for _, stmt := range d.dialect.reset {
			if _, err := tx.tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("reset books: %w", err)
			}
		}
		return nil
	})
}

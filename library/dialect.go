package library

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverPgx     = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// ErrUnsupportedDriver is returned by Open for driver names it does not know.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// dialect captures the few places where the SQL differs between backends.
type dialect struct {
	driver  string
	dsn     func(source string) string
	pragmas []string
	schema  []string
	reset   []string
	dollar  bool // $1, $2 placeholders instead of ?
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS BOOKS (
            ID INTEGER PRIMARY KEY AUTOINCREMENT,
            NAME TEXT NOT NULL DEFAULT '',
            AUTHOR TEXT NOT NULL DEFAULT '',
            PRINT_YEAR INTEGER NOT NULL DEFAULT 0,
            IS_READ BOOLEAN NOT NULL DEFAULT 0
        );`,
	`CREATE INDEX IF NOT EXISTS IDX_BOOKS_AUTHOR ON BOOKS(AUTHOR);`,
}

var sqliteReset = []string{
	`DELETE FROM BOOKS;`,
	`DELETE FROM sqlite_sequence WHERE name='BOOKS';`,
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL;",
}

var dialects = map[string]dialect{
	DriverSQLite3: {
		driver: DriverSQLite3,
		dsn: func(source string) string {
			if strings.HasPrefix(source, "file:") {
				return source
			}
			return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", source)
		},
		pragmas: sqlitePragmas,
		schema:  sqliteSchema,
		reset:   sqliteReset,
	},
	DriverSQLite: {
		driver: DriverSQLite,
		dsn: func(source string) string {
			if strings.HasPrefix(source, "file:") {
				return source
			}
			return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", source)
		},
		pragmas: sqlitePragmas,
		schema:  sqliteSchema,
		reset:   sqliteReset,
	},
	DriverPgx: {
		driver: DriverPgx,
		dsn:    func(source string) string { return source },
		schema: []string{
			`CREATE TABLE IF NOT EXISTS BOOKS (
            ID BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
            NAME TEXT NOT NULL DEFAULT '',
            AUTHOR TEXT NOT NULL DEFAULT '',
            PRINT_YEAR INTEGER NOT NULL DEFAULT 0,
            IS_READ BOOLEAN NOT NULL DEFAULT FALSE
        );`,
			`CREATE INDEX IF NOT EXISTS IDX_BOOKS_AUTHOR ON BOOKS(AUTHOR);`,
		},
		reset:  []string{`TRUNCATE TABLE BOOKS RESTART IDENTITY;`},
		dollar: true,
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return d, nil
}

// rebind rewrites ? placeholders for drivers that number their parameters.
func (d dialect) rebind(query string) string {
	if !d.dollar {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SupportedDrivers lists the driver names accepted by Open.
func SupportedDrivers() []string {
	return []string{DriverSQLite3, DriverSQLite, DriverPgx}
}

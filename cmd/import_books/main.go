// Command import_books seeds a fresh book database from a YAML or JSON
// manifest. The target comes from BOOKMANAGER_* configuration; a DB argument
// overrides the source. Existing books are discarded, but only once the
// manifest has been checked.
//
//	import_books MANIFEST [DB]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"book-manager/config"
	"book-manager/library"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: import_books MANIFEST [DB]")
		os.Exit(2)
	}

	cfg := config.NewConfig()
	if len(os.Args) == 3 {
		cfg.Database.Source = os.Args[2]
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := run(context.Background(), os.Stdout, cfg, os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, cfg *config.Config, manifestPath string) error {
	books, err := library.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := library.Validate(books); err != nil {
		return fmt.Errorf("import aborted, existing database left untouched: %w", err)
	}

	fileBacked := cfg.Database.Driver != library.DriverPgx
	if fileBacked {
		removeDatabaseFiles(w, cfg.Database.Source)
	}

	manager, err := library.OpenBookManager(cfg.Database.Driver, cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer manager.Close()

	if !fileBacked {
		fmt.Fprintln(w, "Clearing existing books...")
		if err := manager.Reset(ctx); err != nil {
			return fmt.Errorf("clearing books: %w", err)
		}
	}

	fmt.Fprintf(w, "Importing %d books from %s...\n", len(books), manifestPath)
	if err := manager.AddAll(ctx, books); err != nil {
		return fmt.Errorf("import failed, no books were added: %w", err)
	}

	fmt.Fprintf(w, "\nImport complete! Added %d books.\n", len(books))
	if len(books) == 0 {
		return nil
	}

	stored, err := manager.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("retrieving books: %w", err)
	}
	fmt.Fprintf(w, "\n%-3s %-40s %-25s %-6s\n", "ID", "Title", "Author", "Year")
	fmt.Fprintln(w, strings.Repeat("-", 77))
	for _, book := range stored {
		fmt.Fprintf(w, "%-3d %-40s %-25s %-6d\n", book.ID, truncateString(book.Name, 40), truncateString(book.Author, 25), book.PrintYear)
	}
	return nil
}

func removeDatabaseFiles(w io.Writer, path string) {
	fmt.Fprintln(w, "Cleaning up existing database files...")
	for _, file := range []string{path, path + "-shm", path + "-wal"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(w, "Warning: Could not remove %s: %v\n", file, err)
		}
	}
}

// truncateString shortens s to maxLen runes.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

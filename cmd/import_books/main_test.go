package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-manager/config"
	"book-manager/library"
)

func sqliteConfig(path string) *config.Config {
	return &config.Config{
		Database: config.Database{Driver: library.DriverSQLite3, Source: path},
		Log:      config.Log{Level: "info"},
	}
}

func storedBooks(t *testing.T, dbPath string) []library.Book {
	t.Helper()
	bm, err := library.OpenBookManager(library.DriverSQLite3, dbPath)
	require.NoError(t, err)
	defer bm.Close()

	all, err := bm.GetAll(context.Background())
	require.NoError(t, err)
	return all
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "Harry P...", truncateString("Harry Potter and the Deathly Hallows", 10))
	assert.Equal(t, "Har", truncateString("Harry", 3))

	got := truncateString("Les Misérables, tome premier", 11)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Les Misé...", got)
	assert.Equal(t, "Misérables", truncateString("Misérables", 10))
}

func TestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "books.db")

	// Stale database content must not survive a re-import.
	stale, err := library.OpenBookManager(library.DriverSQLite3, dbPath)
	require.NoError(t, err)
	require.NoError(t, stale.Add(context.Background(), &library.Book{Name: "stale"}))
	require.NoError(t, stale.Close())

	manifest := filepath.Join("testdata", "books.yaml")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, sqliteConfig(dbPath), manifest))
	assert.Contains(t, out.String(), "Added 3 books")
	assert.Contains(t, out.String(), "The Fellowship of the Ring")

	all := storedBooks(t, dbPath)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, "1984", all[0].Name)
}

func TestRun_RejectedManifestKeepsExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "books.db")

	existing, err := library.OpenBookManager(library.DriverSQLite3, dbPath)
	require.NoError(t, err)
	require.NoError(t, existing.Add(context.Background(), &library.Book{Name: "keep me"}))
	require.NoError(t, existing.Close())

	manifest := filepath.Join(dir, "books.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("books:\n  - name: a\n  - ~\n"), 0o644))

	var out bytes.Buffer
	err = run(context.Background(), &out, sqliteConfig(dbPath), manifest)
	require.ErrorIs(t, err, library.ErrInvalidBook)
	assert.NotContains(t, out.String(), "Cleaning up")

	all := storedBooks(t, dbPath)
	require.Len(t, all, 1)
	assert.Equal(t, "keep me", all[0].Name)
}

func TestRun_UsesConfiguredDriver(t *testing.T) {
	manifest, err := filepath.Abs(filepath.Join("testdata", "books.yaml"))
	require.NoError(t, err)

	dir := t.TempDir()
	chdir(t, dir)
	dbPath := filepath.Join(dir, "modernc.db")
	t.Setenv("BOOKMANAGER_DATABASE_DRIVER", library.DriverSQLite)
	t.Setenv("BOOKMANAGER_DATABASE_SOURCE", dbPath)

	cfg := config.NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, library.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, dbPath, cfg.Database.Source)

	require.NoError(t, run(context.Background(), &bytes.Buffer{}, cfg, manifest))
	assert.Len(t, storedBooks(t, dbPath), 3)
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"book-manager/config"
	"book-manager/library"
)

// rootOptions holds global flags and the configuration resolved from them.
type rootOptions struct {
	Verbose bool
	Format  string

	v   *viper.Viper
	cfg *config.Config
}

func main() {
	config.LoadEnvFiles()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:           "bookmanager",
		Short:         "Manage a catalogue of books",
		Long:          "Add, find, update and remove books stored in SQLite or PostgreSQL. Batches are all-or-nothing.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.cfg = config.FromViper(opts.v)
			if err := opts.cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			setupLogging(cmd.ErrOrStderr(), opts)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.String("driver", library.DriverSQLite3, "database driver (sqlite3|sqlite|pgx)")
	flags.String("db", config.DefaultDatabasePath, "SQLite file path or PostgreSQL DSN")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	_ = opts.v.BindPFlag(config.KeyDatabaseDriver, flags.Lookup("driver"))
	_ = opts.v.BindPFlag(config.KeyDatabaseSource, flags.Lookup("db"))
	_ = opts.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	cmd.AddCommand(newAddCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newRemoveCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newResetCommand(opts))

	return cmd
}

func setupLogging(w io.Writer, opts *rootOptions) {
	level, _ := opts.cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// withManager opens the configured database for the duration of fn.
func (o *rootOptions) withManager(cmd *cobra.Command, fn func(ctx context.Context, bm *library.BookManager) error) error {
	slog.Debug("opening database", "driver", o.cfg.Database.Driver)
	bm, err := library.OpenBookManager(o.cfg.Database.Driver, o.cfg.Database.Source)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer func() {
		if closeErr := bm.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(cmd.Context(), bm)
}

func (o *rootOptions) output(cmd *cobra.Command) *outputFormatter {
	return &outputFormatter{format: o.Format, w: cmd.OutOrStdout()}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"book-manager/library"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid book ID %q", arg))
	}
	return id, nil
}

// batchError maps a rejected batch to ExitFailure and anything else to a plain error.
func batchError(action string, err error) error {
	if errors.Is(err, library.ErrInvalidBook) {
		return WrapExitError(ExitFailure, action+" rejected, nothing was written", err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var book library.Book

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withManager(cmd, func(ctx context.Context, bm *library.BookManager) error {
				if err := bm.Add(ctx, &book); err != nil {
					return batchError("add", err)
				}
				return opts.output(cmd).book(book)
			})
		},
	}

	cmd.Flags().StringVar(&book.Name, "name", "", "book title")
	cmd.Flags().StringVar(&book.Author, "author", "", "book author")
	cmd.Flags().IntVar(&book.PrintYear, "year", 0, "print year")
	cmd.Flags().BoolVar(&book.Read, "read", false, "mark the book as read")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a single book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withManager(cmd, func(ctx context.Context, bm *library.BookManager) error {
				book, err := bm.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if book.ID == 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("no book with ID %d", id))
				}
				return opts.output(cmd).book(book)
			})
		},
	}
}

type listFilters struct {
	name   string
	author string
	year   int
	read   bool
	unread bool
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var f listFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered by one field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withManager(cmd, func(ctx context.Context, bm *library.BookManager) error {
				var (
					books []library.Book
					err   error
				)
				flags := cmd.Flags()
				switch {
				case flags.Changed("name"):
					books, err = bm.GetByName(ctx, f.name)
				case flags.Changed("author"):
					books, err = bm.GetByAuthor(ctx, f.author)
				case flags.Changed("year"):
					books, err = bm.GetByPrintYear(ctx, f.year)
				case f.read:
					books, err = bm.GetByIsRead(ctx, true)
				case f.unread:
					books, err = bm.GetByIsRead(ctx, false)
				default:
					books, err = bm.GetAll(ctx)
				}
				if err != nil {
					return err
				}
				return opts.output(cmd).books(books)
			})
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "only books with this exact title")
	cmd.Flags().StringVar(&f.author, "author", "", "only books by this author")
	cmd.Flags().IntVar(&f.year, "year", 0, "only books printed in this year")
	cmd.Flags().BoolVar(&f.read, "read", false, "only books that have been read")
	cmd.Flags().BoolVar(&f.unread, "unread", false, "only books that have not been read")
	cmd.MarkFlagsMutuallyExclusive("name", "author", "year", "read", "unread")

	return cmd
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	var (
		name, author string
		year         int
		read         bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of an existing book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withManager(cmd, func(ctx context.Context, bm *library.BookManager) error {
				book, err := bm.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if book.ID == 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("no book with ID %d", id))
				}

				flags := cmd.Flags()
				if flags.Changed("name") {
					book.Name = name
				}
				if flags.Changed("author") {
					book.Author = author
				}
				if flags.Changed("year") {
					book.PrintYear = year
				}
				if flags.Changed("read") {
					book.Read = read
				}

				if err := bm.Update(ctx, &book); err != nil {
					return batchError("update", err)
				}
				return opts.output(cmd).book(book)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new title")
	cmd.Flags().StringVar(&author, "author", "", "new author")
	cmd.Flags().IntVar(&year, "year", 0, "new print year")
	cmd.Flags().BoolVar(&read, "read", false, "read status (--read=false to clear)")

	return cmd
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID...",
		Short: "Remove books by ID in a single transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books := make([]*library.Book, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				books = append(books, &library.Book{ID: id})
			}
			return opts.withManager(cmd, func(ctx context.Context, bm *library.BookManager) error {
				if err := bm.RemoveAll(ctx, books); err != nil {
					return batchError("remove", err)
				}
				return opts.output(cmd).message("Removed %d book(s).", len(books))
			})
		},
	}
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add every book of a YAML or JSON manifest in one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := library.LoadManifest(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load manifest", err)
			}
			return opts.withManager(cmd, func(ctx context.Context, bm *library.BookManager) error {
				if err := bm.AddAll(ctx, books); err != nil {
					return batchError("import", err)
				}
				added := make([]library.Book, 0, len(books))
				for _, b := range books {
					added = append(added, *b)
				}
				return opts.output(cmd).books(added)
			})
		},
	}
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every book and restart ID numbering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withManager(cmd, func(ctx context.Context, bm *library.BookManager) error {
				if err := bm.Reset(ctx); err != nil {
					return err
				}
				return opts.output(cmd).message("All books removed.")
			})
		},
	}
}

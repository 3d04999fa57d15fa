package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"book-manager/library"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // operation rejected (not found, invalid batch)
	ExitCommandError = 2 // bad flags, configuration or database connection
)

// ExitError carries the exit code a failed command should end the process with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error, ExitFailure by default.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// outputFormatter renders command results as text rows or indented JSON.
type outputFormatter struct {
	format string
	w      io.Writer
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (f *outputFormatter) books(books []library.Book) error {
	if f.format == "json" {
		return f.json(books)
	}
	if len(books) == 0 {
		_, err := fmt.Fprintln(f.w, "No books found.")
		return err
	}
	// Header only for humans; piped output stays one book per line.
	if isTerminal(f.w) {
		fmt.Fprintln(f.w, library.BookHeader)
	}
	for _, b := range books {
		if _, err := fmt.Fprintln(f.w, library.PrettyBook(b)); err != nil {
			return err
		}
	}
	return nil
}

func (f *outputFormatter) book(b library.Book) error {
	if f.format == "json" {
		return f.json(b)
	}
	_, err := fmt.Fprintln(f.w, library.PrettyBook(b))
	return err
}

func (f *outputFormatter) message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if f.format == "json" {
		return f.json(messageResponse{Status: "ok", Message: msg})
	}
	_, err := fmt.Fprintln(f.w, msg)
	return err
}

func (f *outputFormatter) json(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

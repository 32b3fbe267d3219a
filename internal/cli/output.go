package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/packc/internal/config"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/span"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Compilation failure or failed scenarios
	ExitCommandError = 2 // Command error (bad paths, bad configuration, refused overwrite)
)

// Command error codes. Diagnostics from the compiler keep their own
// E2xx/E3xx codes and configuration errors their E00x codes.
const (
	ErrCodeGeneric         = "E010" // Generic/unknown error
	ErrCodeNotFound        = "E011" // Path not found or unreadable
	ErrCodeWriteFailed     = "E012" // Pack could not be written
	ErrCodeUnsafeOverwrite = "E013" // Target exists and was not generated
	ErrCodeDatabase        = "E014" // Link map database error
	ErrCodeTestFailed      = "E015" // One or more scenarios failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	BuildID string    `json:"build_id,omitempty"` // identifier of the generated pack
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E301", "E013", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Diagnostic is the JSON detail of a compiler error.
type Diagnostic struct {
	File        string    `json:"file"`
	Kind        string    `json:"kind"` // "syntax", "conversion" or "config"
	Span        span.Span `json:"span"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// describe extracts the code, message and detail of a compilation error.
// ok is false for errors that are not diagnostics.
func describe(file string, err error) (code, message string, d Diagnostic, ok bool) {
	d.File = file
	var se *diag.SyntaxError
	if errors.As(err, &se) {
		d.Kind, d.Span, d.Suggestions = "syntax", se.Span, se.Suggestions
		return se.Code, se.Message, d, true
	}
	var ce *diag.ConversionError
	if errors.As(err, &ce) {
		d.Kind, d.Span, d.Suggestions = "conversion", ce.Span, ce.Suggestions
		return ce.Code, ce.Message, d, true
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		d.Kind = "config"
		if cfgErr.Pos.IsValid() {
			d.File = cfgErr.Pos.Filename()
			d.Span = span.Point(cfgErr.Pos.Line(), cfgErr.Pos.Column())
		}
		return cfgErr.Code, cfgErr.Message, d, true
	}
	return ErrCodeGeneric, err.Error(), d, false
}

// outputDiagnostic reports a compiler error and returns the ExitError for
// it. Text output shows the offending source line with a caret.
func outputDiagnostic(formatter *OutputFormatter, file, source string, err error) error {
	code, message, d, ok := describe(file, err)
	exit := ExitFailure
	if !ok || d.Kind == "config" {
		exit = ExitCommandError
	}

	if formatter.Format == "json" {
		_ = formatter.Error(code, message, d)
		return WrapExitError(exit, code, err)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Compilation failed")
	fmt.Fprintln(w)
	if d.Span.Start.IsValid() {
		fmt.Fprintf(w, "%s:%s\n", d.File, d.Span.Start)
	}
	fmt.Fprintf(w, "  %s: %s\n", code, message)
	for _, s := range d.Suggestions {
		fmt.Fprintf(w, "  did you mean %q?\n", s)
	}
	if d.Kind != "config" {
		if excerpt := sourceExcerpt(source, d.Span.Start); excerpt != "" {
			fmt.Fprintln(w)
			fmt.Fprint(w, excerpt)
		}
	}
	return WrapExitError(exit, code, err)
}

// sourceExcerpt renders the line at p with a caret under its column.
func sourceExcerpt(source string, p span.Pos) string {
	if !p.IsValid() {
		return ""
	}
	lines := strings.Split(source, "\n")
	if p.Line > len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[p.Line-1], "\r")
	out := fmt.Sprintf("  %4d | %s\n", p.Line, line)
	if p.Col > 0 {
		pad := make([]byte, 0, p.Col-1)
		for i := 0; i < p.Col-1 && i < len(line); i++ {
			if line[i] == '\t' {
				pad = append(pad, '\t')
			} else {
				pad = append(pad, ' ')
			}
		}
		out += fmt.Sprintf("       | %s^\n", pad)
	}
	return out
}

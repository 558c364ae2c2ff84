package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the process exit code for a failed command.
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

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that carry no code.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the json envelope of every command.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Printer writes results as text or json.
type Printer struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Success prints data. In text mode data is printed with its String method.
func (p *Printer) Success(data fmt.Stringer) error {
	if p.Format == FormatJSON {
		return json.NewEncoder(p.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := io.WriteString(p.Writer, data.String())
	return err
}

// Logf writes diagnostics to ErrWriter when verbose.
func (p *Printer) Logf(format string, args ...any) {
	if !p.Verbose {
		return
	}
	fmt.Fprintf(p.ErrWriter, format+"\n", args...)
}

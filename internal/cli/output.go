package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1 // drift found, nothing seeded
	ExitCommandError = 2 // bad flags, backend unreachable
)

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

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that carry no code.
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

type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Formatter struct {
	Format string
	Writer io.Writer
}

// Emit writes data as a JSON envelope, or calls text to render it for humans.
func (f *Formatter) Emit(data any, text func(w io.Writer)) error {
	if f.Format == FormatJSON {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

func (f *Formatter) Fail(err error) {
	if f.Format == FormatJSON {
		_ = json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: err.Error()})
		return
	}
	fmt.Fprintf(f.Writer, "Error: %v\n", err)
}

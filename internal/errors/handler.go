// Package errors routes user-facing messages and command failures to the
// terminal.
package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
)

// Exit codes returned by Report.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// ErrAborted marks a failure the user asked for, e.g. a hook configured
// with failure mode "abort". Report prints it as a warning.
var ErrAborted = stderrors.New("aborted")

// ErrorHandler is the interface for error handling.
type ErrorHandler interface {
	Error(msg string)
	Warning(msg string)
	Info(msg string)
	Success(msg string)
}

// CLIHandler handles errors by printing to stdout/stderr using the colors package.
type CLIHandler struct {
	colors     ColorOutput
	mu         sync.Mutex
	inHandling bool
}

// ColorOutput is the printing backend of CLIHandler.
type ColorOutput interface {
	Error(msgs ...string)
	Warning(msgs ...string)
	Info(msgs ...string)
	Success(msgs ...string)
}

var _ ErrorHandler = (*CLIHandler)(nil)

func NewCLIHandler(colors ColorOutput) *CLIHandler {
	return &CLIHandler{colors: colors}
}

func (h *CLIHandler) Error(msg string) {
	h.mu.Lock()
	if h.inHandling {
		h.mu.Unlock()
		h.colors.Error(msg)
		return
	}
	h.inHandling = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.inHandling = false
		h.mu.Unlock()
	}()

	h.colors.Error(msg)
}

func (h *CLIHandler) Warning(msg string) {
	h.colors.Warning(msg)
}

func (h *CLIHandler) Info(msg string) {
	h.colors.Info(msg)
}

func (h *CLIHandler) Success(msg string) {
	h.colors.Success(msg)
}

// Report prints err and returns the process exit code for it. A nil error
// prints nothing and maps to ExitOK.
func (h *CLIHandler) Report(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, ErrAborted) {
		h.Warning(err.Error())
		return ExitFailure
	}
	h.Error(err.Error())
	return ExitFailure
}

// Abortf returns an error wrapping ErrAborted.
func Abortf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAborted, fmt.Sprintf(format, args...))
}

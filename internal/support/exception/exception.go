// Package exception provides the error type used throughout the tripboard pipeline.
// Every stage wraps failures in a PipelineError tagged with the module that raised it,
// so the single fatal message printed at the process boundary names the failing stage.
package exception

import (
	"fmt"
	"runtime"
)

// PipelineError is the error type raised by pipeline stages.
// It carries the module where the error occurred, a concise message and the
// wrapped original error. There is no retry or skip classification: every
// PipelineError aborts the run.
type PipelineError struct {
	// Module indicates the stage where the error occurred (e.g. "cache", "dataset", "aggregate", "report").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error, if any.
	OriginalErr error
	// StackTrace is the stack trace captured when the error was created (for debugging).
	StackTrace string
}

// NewPipelineError creates a new PipelineError instance wrapping originalErr.
func NewPipelineError(module, message string, originalErr error) *PipelineError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &PipelineError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// NewPipelineErrorf creates a new PipelineError using a format string.
// If the last variadic argument is an error it is extracted and wrapped as the
// original error instead of being formatted into the message.
func NewPipelineErrorf(module, format string, a ...interface{}) *PipelineError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return NewPipelineError(module, fmt.Sprintf(format, args...), originalErr)
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// IsPipelineError determines if the given error is of type PipelineError.
func IsPipelineError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*PipelineError)
	return ok
}

// ExtractErrorMessage extracts the message string from an error.
// For PipelineError it returns the cleaner Message field,
// otherwise the standard Error() string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*PipelineError); ok {
		return pe.Message
	}
	return err.Error()
}

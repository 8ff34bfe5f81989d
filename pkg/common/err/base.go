package err

import (
	"errors"
	"strings"
)

// Error is the base error type shared by every package in the project.
//
// Recovery runs are dominated by expected, non-fatal failures (a file the
// server never exposed, a truncated ref, a flaky connection), so errors
// carry a machine-readable code that lets callers decide between
// skip-and-log and aborting the run without string matching.
type Error struct {
	// Package identifies the originating package (e.g. "remote", "index").
	Package string

	// Code categorizes the failure. Use the constants below.
	Code string

	// Op is the operation being performed, e.g. "fetch", "parse_head".
	Op string

	// Message is optional human-readable context.
	Message string

	// Err is the wrapped underlying error, nil for leaf errors.
	Err error
}

// Error implements the error interface.
// Format: [package][code] op: message: wrapped_error
func (e *Error) Error() string {
	var b strings.Builder
	if e.Package != "" {
		b.WriteString("[" + e.Package + "]")
	}
	if e.Code != "" {
		b.WriteString("[" + e.Code + "]")
	}

	parts := make([]string, 0, 3)
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, ": ")
	if e.Err != nil {
		if result != "" {
			result += ": " + e.Err.Error()
		} else {
			result = e.Err.Error()
		}
	}
	return result
}

// Unwrap supports errors.Is and errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two errors by code, so callers can use errors.Is with a
// sentinel like &Error{Code: CodeAbsent}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// New creates a new base error.
func New(pkg, code, op, message string, err error) *Error {
	return &Error{Package: pkg, Code: code, Op: op, Message: message, Err: err}
}

// Wrap wraps an error with package, code and operation context.
// Returns nil if err is nil.
func Wrap(err error, pkg, code, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Package: pkg, Code: code, Op: op, Err: err}
}

// Error codes. The taxonomy mirrors how the orchestrator treats failures:
// everything except CodeNoExposure is downgraded to skip-and-log.
const (
	// CodeTransport indicates a network-level failure (DNS, connect,
	// timeout) that exhausted its retries.
	CodeTransport = "TRANSPORT"

	// CodeAbsent indicates the server definitively answered that a path
	// does not exist. Never retried.
	CodeAbsent = "ABSENT"

	// CodeParse indicates malformed ref, index or object content.
	CodeParse = "PARSE"

	// CodeNoExposure indicates the target yielded zero seed files. This is
	// the only run-fatal code.
	CodeNoExposure = "NO_EXPOSURE"

	// CodeInvalidInput indicates invalid or malformed input parameters.
	CodeInvalidInput = "INVALID_INPUT"

	// CodeStore indicates an output store write/read failure.
	CodeStore = "STORE"

	// CodeInternal indicates an unexpected internal error.
	CodeInternal = "INTERNAL"
)

// IsCode checks if an error (anywhere in the chain) carries a code.
func IsCode(e error, code string) bool {
	var base *Error
	if errors.As(e, &base) {
		return base.Code == code
	}
	return false
}

// GetCode extracts the code from an error chain, or "" if absent.
func GetCode(e error) string {
	var base *Error
	if errors.As(e, &base) {
		return base.Code
	}
	return ""
}

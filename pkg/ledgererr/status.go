// Copyright 2025 Certen Protocol
//
// Package ledgererr carries the fixed status-code taxonomy across the
// LedgerService operation boundary. Most internal collaborators return plain
// wrapped errors that the boundary converts to a Status; pkg/budget returns
// Status values itself, and the boundary passes those through unchanged.
package ledgererr

import "fmt"

// Code is one of the fixed set of outcomes a LedgerService operation can
// report. The set is closed by design: callers switch on it exhaustively.
type Code int

const (
	// OK is never attached to an error value; it exists so the zero Code
	// doesn't silently alias a real failure.
	OK Code = iota
	InvalidArgument
	NotFound
	FailedPrecondition
	ResourceExhausted
	Internal
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case FailedPrecondition:
		return "FailedPrecondition"
	case ResourceExhausted:
		return "ResourceExhausted"
	case Internal:
		return "Internal"
	default:
		return "OK"
	}
}

// Status is the error type every LedgerService operation returns on
// failure. Message is human-readable and not part of any contract; Code is.
type Status struct {
	Code    Code
	Message string
}

func (s *Status) Error() string {
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}

// New builds a Status with a formatted message.
func New(code Code, format string, args ...any) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a Status that folds an underlying error's text into the
// message, the way the teacher's repositories fold driver errors into
// sentinel errors.
func Wrap(code Code, err error, context string) *Status {
	return &Status{Code: code, Message: fmt.Sprintf("%s: %v", context, err)}
}

// CodeOf extracts the Code from err if it is a *Status, otherwise Internal.
func CodeOf(err error) Code {
	if s, ok := err.(*Status); ok {
		return s.Code
	}
	return Internal
}

// Package zferrors defines the error taxonomy shared across the dataflow
// runtime: descriptor parsing, instantiation and runner failures are all
// surfaced as a typed Error carrying a Kind, so callers can branch on
// failure class without string matching.
package zferrors

import "fmt"

// Kind classifies a runtime error into the taxonomy fixed by the
// specification's error handling design.
type Kind string

const (
	ParsingError         Kind = "ParsingError"
	SerializationError   Kind = "SerializationError"
	IOError              Kind = "IOError"
	MissingConfiguration Kind = "MissingConfiguration"
	MissingOutput        Kind = "MissingOutput"
	MissingInput         Kind = "MissingInput"
	NodeNotFound         Kind = "NodeNotFound"
	PortNotFound         Kind = "PortNotFound"
	Unimplemented        Kind = "Unimplemented"
	GenericError         Kind = "GenericError"
	RecvError            Kind = "RecvError"
	SendError            Kind = "SendError"
)

// Error is the concrete error type returned by every package in this
// module. It wraps an underlying cause (if any) so %w unwrapping still
// works through errors.Is/errors.As.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that carries an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var zerr *Error
	if e, ok := err.(*Error); ok {
		zerr = e
	} else {
		return false
	}
	return zerr.Kind == kind
}

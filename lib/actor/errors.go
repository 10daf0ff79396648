package actor

import (
	"errors"
	"fmt"
)

// Code classifies an Error.
type Code uint8

const (
	CodeUnknown         Code = iota // 0: not an actor error
	CodeTimeout                     // 1: no reply within the call timeout
	CodeCanceled                    // 2: the caller's context was canceled
	CodeStopped                     // 3: the target is gone or dropped the reply
	CodeSpawnFailed                 // 4: a new actor could not be created
	CodeInvalidArgument             // 5: the request itself is invalid
)

func (c Code) String() string {
	switch c {
	case CodeTimeout:
		return "Timeout"
	case CodeCanceled:
		return "Canceled"
	case CodeStopped:
		return "Stopped"
	case CodeSpawnFailed:
		return "SpawnFailed"
	case CodeInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is the error type of the actor runtime.
type Error struct {
	Code  Code
	Msg   string
	Cause error
}

var (
	ErrTimeout         = &Error{Code: CodeTimeout, Msg: "request timed out"}
	ErrCanceled        = &Error{Code: CodeCanceled, Msg: "request canceled"}
	ErrStopped         = &Error{Code: CodeStopped, Msg: "actor stopped"}
	ErrSpawnFailed     = &Error{Code: CodeSpawnFailed, Msg: "spawn failed"}
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument, Msg: "invalid argument"}
)

// NewError creates a new Error. cause may be nil.
func NewError(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so errors.Is(err, ErrTimeout) works
// for every timeout regardless of message and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

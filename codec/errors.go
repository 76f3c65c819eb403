// Package codec implements the worker's canonical compact binary codec:
// bounded big-endian min-width integers and LEB128 varints, both checked
// against a running size cap during decode.
package codec

import "fmt"

// ErrorCode classifies a codec failure. Matches spec error kind names.
type ErrorCode string

const (
	DeserializeError ErrorCode = "DeserializeError"
	SerializeError   ErrorCode = "SerializeError"
)

// Error is a typed codec failure. Compare categories with errors.Is, not
// string equality: two *Error values with the same Code are Is-equal
// regardless of Msg.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

func newDeserializeError(format string, args ...any) *Error {
	return &Error{Code: DeserializeError, Msg: fmt.Sprintf(format, args...)}
}

func newSerializeError(format string, args ...any) *Error {
	return &Error{Code: SerializeError, Msg: fmt.Sprintf(format, args...)}
}

// ErrDeserialize and ErrSerialize are category sentinels for errors.Is checks.
var (
	ErrDeserialize = &Error{Code: DeserializeError}
	ErrSerialize   = &Error{Code: SerializeError}
)

// ErrTooLarge is the specific deserialize failure raised when a running
// cursor exceeds the active size cap.
var ErrTooLarge = &Error{Code: DeserializeError, Msg: "too large"}

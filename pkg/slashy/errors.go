package slashy

import "errors"

// Messages carried by guard denials.
const (
	MsgPermissionDenied = "User does not have permissions"
	MsgNotInDMs         = "Command is not available in dms"
)

// Error is a structured failure with a human-readable message. Guard denials
// travel through the same error result as transport faults; use IsDenial to
// tell them apart.
type Error struct {
	Message string
}

// NewError returns an *Error carrying msg.
func NewError(msg string) *Error {
	return &Error{Message: msg}
}

func (e *Error) Error() string { return e.Message }

// IsDenial reports whether err is, or wraps, an *Error.
func IsDenial(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

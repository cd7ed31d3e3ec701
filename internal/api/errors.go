package api

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports command arguments rejected before any request is made.
var ErrInvalidArgument = errors.New("invalid argument")

// RequestError is the single failure kind returned by Client. Error() yields
// the operation's fixed human-readable message; Status and Cause are kept for
// logging and errors.Is/As.
type RequestError struct {
	Op      string
	Message string
	Status  int   // HTTP status, zero when no response arrived
	Cause   error // transport or decode failure, nil for plain status failures
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Detail describes the failure including status and cause, for logs.
func (e *RequestError) Detail() string {
	switch {
	case e.Cause != nil && e.Status != 0:
		return fmt.Sprintf("%s (%s: status %d: %v)", e.Message, e.Op, e.Status, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s (%s: %v)", e.Message, e.Op, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("%s (%s: status %d)", e.Message, e.Op, e.Status)
	default:
		return e.Message
	}
}

// IsRequestError reports whether err carries a *RequestError.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

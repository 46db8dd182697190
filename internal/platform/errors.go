package platform

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by adapters for calls their platform has no API for.
var ErrUnsupported = errors.New("operation not supported by platform")

// TransientError wraps network and rate-limit failures that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient platform error: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermissionError means the bot lacks the rights for Op in the chat.
type PermissionError struct {
	Op  string
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: bot lacks permission: %v", e.Op, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// Kind names the error class for metrics labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsTransient(err):
		return "transient"
	case IsPermission(err):
		return "permission"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	default:
		return "other"
	}
}

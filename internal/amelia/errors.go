package amelia

import (
	"errors"
	"fmt"
)

// TransientError marks a failure expected to resolve on retry: backend
// overload (503/508) or a request that hit its timeout. The client retries
// these itself; callers only ever see one after the retry budget is spent.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("amelia: transient error: %v", e.Err)
	}
	return fmt.Sprintf("amelia: transient error: backend overloaded (status %d)", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ServerError is a non-transient rejection. Message carries the
// server-supplied text verbatim when present.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("amelia: server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("amelia: server error %d", e.Status)
}

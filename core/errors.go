package core

import "github.com/pkg/errors"

// FieldError ties a rejected value to the request field that carried it.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports a request rejected by business rules. It carries
// either a single message or a per-field breakdown; the HTTP layer renders
// whichever is set.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// shutdownError signals an integrity problem that warrants restarting the
// process instead of serving further requests.
type shutdownError struct {
	msg string
}

func NewShutdownError(msg string) error {
	return &shutdownError{msg: msg}
}

func (e *shutdownError) Error() string {
	return e.msg
}

// IsShutdown reports whether err, at its root cause, demands a graceful
// shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}

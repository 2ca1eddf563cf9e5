package core

import "github.com/pkg/errors"

var (
	// ErrPermissionDenied is returned when the caller's role does not permit
	// the requested scope or write.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnknownRole is returned when the caller's role is not one of the
	// known roles; no data is visible to such a caller.
	ErrUnknownRole = errors.New("unknown role")

	// ErrConflict is returned when an atomic write (payment propagation)
	// cannot complete; none of its effects are applied.
	ErrConflict = errors.New("conflicting update, try again")

	// ErrStoreUnavailable is returned when the datastore is unreachable.
	// Reads are safe to retry at the caller's discretion.
	ErrStoreUnavailable = errors.New("datastore unavailable")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

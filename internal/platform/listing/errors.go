package listing

import "errors"

// ValidationError blocks a write before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a ValidationError with a user-facing message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrUnsupported is returned when the source does not implement the
	// requested write.
	ErrUnsupported = errors.New("operation not supported by this resource")
	// ErrNotFound is returned when an update matched no record.
	ErrNotFound = errors.New("record not found")
	// ErrStale is returned when a newer read superseded this one.
	ErrStale = errors.New("superseded by a newer request")
)

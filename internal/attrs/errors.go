package attrs

import "errors"

// ErrInvalid matches every *ValidationError via errors.Is.
var ErrInvalid = errors.New("attributes are invalid")

// ValidationError is returned by Set when the validator rejects the
// prospective attributes. The store is left unchanged.
type ValidationError struct {
	// Err is the validator's error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "attrs: validation failed: " + e.Err.Error()
}

// Unwrap returns the validator's error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match ValidationError with ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

package validate

import (
	"errors"
	"strings"
)

var (
	// ErrRules matches every *RulesError via errors.Is.
	ErrRules = errors.New("attribute rules failed")

	// ErrRejected matches every *Rejection via errors.Is.
	ErrRejected = errors.New("script rejected attributes")

	// ErrNoValidateFunc is returned when a script defines no validate function.
	ErrNoValidateFunc = errors.New("script does not define a validate function")
)

// FieldError is one failed rule.
type FieldError struct {
	// Field is the attribute key, dotted for nested maps.
	Field string

	// Tag is the failing validator tag, such as "lte".
	Tag string

	// Param is the tag parameter, such as "20".
	Param string

	// Value is the offending value.
	Value any

	// Err is set instead of Tag when the value could not be checked.
	Err error
}

// String returns the failure as "field: tag=param".
func (f FieldError) String() string {
	if f.Err != nil {
		return f.Field + ": " + f.Err.Error()
	}
	if f.Param != "" {
		return f.Field + ": " + f.Tag + "=" + f.Param
	}
	return f.Field + ": " + f.Tag
}

// RulesError lists every failed rule, sorted by field.
type RulesError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *RulesError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "validate: " + strings.Join(parts, "; ")
}

// Is allows errors.Is to match RulesError with ErrRules.
func (e *RulesError) Is(target error) bool {
	return target == ErrRules
}

// Rejection is returned when a script rejects the attributes.
type Rejection struct {
	Message string
}

// Error implements the error interface.
func (e *Rejection) Error() string {
	return "validate: " + e.Message
}

// Is allows errors.Is to match Rejection with ErrRejected.
func (e *Rejection) Is(target error) bool {
	return target == ErrRejected
}

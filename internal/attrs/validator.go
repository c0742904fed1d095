package attrs

// Validator checks a complete prospective attribute map.
type Validator interface {
	Validate(attrs map[string]any) error
}

// ValidatorFunc is a function adapter for Validator.
type ValidatorFunc func(attrs map[string]any) error

// Validate implements the Validator interface.
func (f ValidatorFunc) Validate(attrs map[string]any) error {
	return f(attrs)
}

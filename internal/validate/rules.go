package validate

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rules validates attributes against validator tags keyed by attribute.
// A nested map of rules validates a nested map attribute.
type Rules struct {
	validate *validator.Validate
	rules    map[string]any
}

// NewRules creates a Rules validator.
func NewRules(rules map[string]any) *Rules {
	return &Rules{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		rules:    rules,
	}
}

// Validate implements attrs.Validator.
func (r *Rules) Validate(attrs map[string]any) error {
	failures := r.validate.ValidateMap(attrs, r.rules)
	if len(failures) == 0 {
		return nil
	}

	var fields []FieldError
	collect(&fields, "", attrs, failures)
	slices.SortFunc(fields, func(a, b FieldError) int {
		return strings.Compare(a.Field, b.Field)
	})
	return &RulesError{Fields: fields}
}

// collect flattens the result of ValidateMap.
func collect(out *[]FieldError, prefix string, attrs map[string]any, failures map[string]any) {
	for key, failure := range failures {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}

		switch f := failure.(type) {
		case map[string]any:
			nested, _ := attrs[key].(map[string]any)
			collect(out, field, nested, f)
		case error:
			var verrs validator.ValidationErrors
			if errors.As(f, &verrs) {
				for _, fe := range verrs {
					*out = append(*out, FieldError{
						Field: field,
						Tag:   fe.Tag(),
						Param: fe.Param(),
						Value: fe.Value(),
					})
				}
				continue
			}
			*out = append(*out, FieldError{Field: field, Value: attrs[key], Err: f})
		}
	}
}

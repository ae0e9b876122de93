package tax

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation matches every cart validation failure via errors.Is.
var ErrValidation = errors.New("tax: validation failed")

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Fields maps the offending field to its reason.
func (e *ValidationError) Fields() map[string]string {
	return map[string]string{e.Field: e.Reason}
}

// ValidationErrors collects every field problem found while building a cart.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "tax: invalid cart: " + strings.Join(parts, "; ")
}

// Is makes ValidationErrors match ErrValidation.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// As lets errors.As extract the first *ValidationError.
func (v ValidationErrors) As(target any) bool {
	if len(v) == 0 {
		return false
	}
	if p, ok := target.(**ValidationError); ok {
		*p = v[0]
		return true
	}
	return false
}

// Fields maps each offending field to its reason; the first reason per field wins.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Reason
		}
	}
	return out
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Package forms evaluates customer input against a service schema:
// value coercion, conditional visibility and required-field validation.
// All functions are pure; state is passed in explicitly.
package forms

import (
	"fmt"
	"strconv"

	"github.com/navaex/portal/internal/schema"
)

// FormState maps field names to submitted values. Value shape depends on
// the field type: string, float64, bool or []string.
type FormState map[string]any

// Coerce normalizes a raw JSON form payload against the schema. Values
// for unknown field names are dropped; values with a shape that does not
// match the field type are an error naming the field.
func Coerce(svc *schema.Service, raw map[string]any) (FormState, error) {
	state := make(FormState, len(raw))
	for i := range svc.Fields {
		f := &svc.Fields[i]
		v, ok := raw[f.Name]
		if !ok || v == nil {
			continue
		}
		coerced, err := coerceValue(f, v)
		if err != nil {
			return nil, err
		}
		state[f.Name] = coerced
	}
	return state, nil
}

func coerceValue(f *schema.Field, v any) (any, error) {
	switch f.Type {
	case schema.TypeNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case string:
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q: not a number", f.Name)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("field %q: not a number", f.Name)
	case schema.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("field %q: not a boolean", f.Name)
		}
		return b, nil
	case schema.TypeMultiselect:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("field %q: not a list", f.Name)
		}
		keys := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("field %q: option keys must be strings", f.Name)
			}
			keys = append(keys, s)
		}
		return keys, nil
	default:
		// string, email, password, tel, textarea, select, date, file
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q: not a string", f.Name)
		}
		return s, nil
	}
}

// IsVisible reports whether a field is currently displayed. A field with
// no showIf rule is always visible; otherwise the controlling field's
// stored value must equal the rule's value exactly. Chains through
// hidden controlling fields are evaluated independently per field.
func IsVisible(f *schema.Field, state FormState) bool {
	if f.ShowIf == nil {
		return true
	}
	v, ok := state[f.ShowIf.Field]
	if !ok {
		return false
	}
	switch want := f.ShowIf.Equals.(type) {
	case bool:
		got, ok := v.(bool)
		return ok && got == want
	case string:
		got, ok := v.(string)
		return ok && got == want
	case float64:
		got, ok := v.(float64)
		return ok && got == want
	}
	return false
}

// IsEmpty reports whether a form value counts as unfilled: absent, the
// empty string, or a selection with no keys. Zero and false are values.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	}
	return false
}

// ValidationResult reports submission readiness. When OK is false,
// MissingField carries the first offending field's label (or name when
// the schema declares no label).
type ValidationResult struct {
	OK           bool
	MissingField string
}

// Validate gates submission: every required field that is currently
// visible must hold a non-empty value. A required field hidden by its
// showIf rule is exempt regardless of the required flag.
func Validate(svc *schema.Service, state FormState) ValidationResult {
	for i := range svc.Fields {
		f := &svc.Fields[i]
		if !f.Required || !IsVisible(f, state) {
			continue
		}
		if IsEmpty(state[f.Name]) {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			return ValidationResult{OK: false, MissingField: label}
		}
	}
	return ValidationResult{OK: true}
}

package schema

import (
	"sort"
	"strings"
)

// Schema maps a dotted key path to its expected value kind.
// Example: {"platform.temperature": Float(), "extruders": Each(Schema{"fastFeedRate": Float()})}
type Schema map[string]Type

// Keys returns the schema's key paths in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks if data conforms to the schema.
// Every key path is required. Returns an *AggregateError with all failures found,
// ordered by key path.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	if errs := validateInto(schema, data, ""); len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateInto(schema Schema, data map[string]any, prefix string) []error {
	var errs []error

	for _, path := range schema.Keys() {
		fieldType := schema[path]
		key := prefix + path

		value, exists := Lookup(data, path)
		if !exists {
			errs = append(errs, &ValidationError{
				Key:      key,
				Reason:   "required",
				Expected: fieldType.Name(),
			})
			continue
		}

		if each, ok := fieldType.(*EachType); ok {
			errs = append(errs, each.validateAt(key, value)...)
			continue
		}

		// Validate the value against the type
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:      key,
				Reason:   err.Error(),
				Expected: fieldType.Name(),
				Value:    value,
			})
		}
	}

	return errs
}

// Lookup resolves a dotted key path ("platform.waitingPosition.x") in nested maps.
func Lookup(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

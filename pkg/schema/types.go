package schema

import (
	"fmt"
	"reflect"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the value kind (e.g., "float", "object").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %s", describe(value))
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float %v", v)
	default:
		return fmt.Errorf("expected int, got %s", describe(value))
	}
}

// FloatType validates numeric values. Integers are accepted since YAML decodes "200" as int.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return fmt.Errorf("expected float, got %s", describe(value))
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %s", describe(value))
	}
	return nil
}

// ObjectType validates structured (map) values.
type ObjectType struct{}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	if _, ok := asMap(value); !ok {
		return fmt.Errorf("expected object, got %s", describe(value))
	}
	return nil
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected %s, got %s", t.Name(), describe(value))
	}

	// Validate each element
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// EachType validates a non-empty list of objects, each against a nested schema.
// Failures are reported per element with indexed key paths such as "extruders[1].fastFeedRate".
type EachType struct {
	fields Schema
}

func (t *EachType) Name() string { return "[object]" }

// Fields returns the nested schema applied to every element.
func (t *EachType) Fields() Schema { return t.fields }

func (t *EachType) Validate(value any) error {
	errs := t.validateAt("", value)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func (t *EachType) validateAt(key string, value any) []error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return []error{&ValidationError{Key: key, Reason: "wrong kind", Expected: t.Name(), Value: value}}
	}
	if rv.Len() == 0 {
		return []error{&ValidationError{Key: key, Reason: "must not be empty", Expected: t.Name(), Value: value}}
	}

	var errs []error
	for i := 0; i < rv.Len(); i++ {
		elemKey := fmt.Sprintf("%s[%d]", key, i)
		elem, ok := asMap(rv.Index(i).Interface())
		if !ok {
			errs = append(errs, &ValidationError{Key: elemKey, Reason: "wrong kind", Expected: "object", Value: rv.Index(i).Interface()})
			continue
		}
		errs = append(errs, validateInto(t.fields, elem, elemKey+".")...)
	}
	return errs
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a numeric type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Object creates a structured value validator.
func Object() Type { return &ObjectType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Each creates a validator for a non-empty list of objects matching fields.
func Each(fields Schema) Type {
	return &EachType{fields: fields}
}

// ParseType converts a string type name to a Type.
// Supports basic types: "string", "int", "float", "bool", "object", "[string]", "[float]", etc.
// "[object]" yields an Each with an empty nested schema; nested keys are attached by ParseTypeMap.
func ParseType(typeStr string) (Type, error) {
	if typeStr == "[object]" {
		return Each(Schema{}), nil
	}

	// Handle slice types: [string], [int], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemTypeStr := typeStr[1 : len(typeStr)-1]
		elemType, err := ParseType(elemTypeStr)
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	// Handle built-in types
	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "object":
		return Object(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func describe(value any) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprintf("%T (%v)", value, value)
}

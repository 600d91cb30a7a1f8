package schema

import (
	"testing"
)

func TestFloatType(t *testing.T) {
	typ := Float()

	if typ.Name() != "float" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "float")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{220.0, false},
		{float32(0.2), false},
		{900, false}, // YAML decodes whole numbers as int
		{int64(900), false},
		{uint8(1), false},
		{"900", true},
		{true, true},
		{nil, true},
		{map[string]any{}, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestIntType(t *testing.T) {
	typ := Int()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{2, false},
		{int64(2), false},
		{float64(2), false},  // whole number
		{float64(2.5), true}, // not whole
		{"2", true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestStringAndBoolTypes(t *testing.T) {
	if err := String().Validate("mm"); err != nil {
		t.Errorf("String().Validate(\"mm\") = %v", err)
	}
	if err := String().Validate(1); err == nil {
		t.Error("String().Validate(1) should fail")
	}
	if err := Bool().Validate(true); err != nil {
		t.Errorf("Bool().Validate(true) = %v", err)
	}
	if err := Bool().Validate("true"); err == nil {
		t.Error("Bool().Validate(\"true\") should fail")
	}
}

func TestObjectType(t *testing.T) {
	typ := Object()

	if typ.Name() != "object" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "object")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{map[string]any{}, false},
		{map[string]any{"comments": true}, false},
		{map[any]any{"comments": true}, false},
		{map[any]any{1: true}, true},
		{"object", true},
		{[]any{}, true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestSliceType(t *testing.T) {
	floatSlice := Slice(Float())

	tests := []struct {
		value   any
		wantErr bool
		desc    string
	}{
		{[]float64{0, 0.1}, false, "float slice"},
		{[]any{1, 2.5}, false, "any slice with numbers"},
		{[]any{1, "2"}, true, "mixed slice"},
		{"not a slice", true, "string instead of slice"},
		{nil, true, "nil"},
	}

	for _, tt := range tests {
		err := floatSlice.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate(%v) error = %v, wantErr %v", tt.desc, tt.value, err, tt.wantErr)
		}
	}
}

func TestEachType(t *testing.T) {
	typ := Each(Schema{"fastFeedRate": Float()})

	if typ.Name() != "[object]" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "[object]")
	}

	tests := []struct {
		value   any
		wantErr bool
		desc    string
	}{
		{[]any{map[string]any{"fastFeedRate": 900}}, false, "one valid element"},
		{[]any{}, true, "empty list"},
		{[]any{map[string]any{}}, true, "missing nested key"},
		{[]any{"extruder"}, true, "element not an object"},
		{map[string]any{}, true, "object instead of list"},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate(%v) error = %v, wantErr %v", tt.desc, tt.value, err, tt.wantErr)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		wantErr  bool
		wantName string
	}{
		{"string", false, "string"},
		{"int", false, "int"},
		{"float", false, "float"},
		{"bool", false, "bool"},
		{"object", false, "object"},
		{"[float]", false, "[float]"},
		{"[object]", false, "[object]"},
		{"[[string]]", false, "[[string]]"},
		{"invalid", true, ""},
		{"[invalid]", true, ""},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && typ.Name() != tt.wantName {
			t.Errorf("ParseType(%q) Name() = %q, want %q", tt.input, typ.Name(), tt.wantName)
		}
	}
}

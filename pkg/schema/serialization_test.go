package schema

import (
	"encoding/json"
	"testing"
)

func TestSchema_MarshalJSON_Flattens(t *testing.T) {
	data, err := json.Marshal(machineSchema())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := map[string]string{
		"gcoder":                    "object",
		"platform.temperature":      "float",
		"extruders":                 "[object]",
		"extruders[].fastFeedRate":  "float",
		"extruders[].nozzleZOffset": "float",
	}
	for k, v := range want {
		if raw[k] != v {
			t.Errorf("raw[%q] = %q, want %q", k, raw[k], v)
		}
	}
	if len(raw) != len(want) {
		t.Errorf("len(raw) = %d, want %d", len(raw), len(want))
	}
}

func TestSchema_UnmarshalJSON_RebuildsNested(t *testing.T) {
	input := `{"extruders": "[object]", "extruders[].fastFeedRate": "float", "gcoder": "object"}`

	var s Schema
	if err := json.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	each, ok := s["extruders"].(*EachType)
	if !ok {
		t.Fatalf("extruders should be *EachType, got %T", s["extruders"])
	}
	if each.Fields()["fastFeedRate"].Name() != "float" {
		t.Error("nested fastFeedRate should be float")
	}

	data := map[string]any{"gcoder": map[string]any{}, "extruders": []any{map[string]any{}}}
	keys := FailedKeys(Validate(s, data))
	if len(keys) != 1 || keys[0] != "extruders[0].fastFeedRate" {
		t.Errorf("FailedKeys() = %v", keys)
	}
}

func TestParseTypeMap_Errors(t *testing.T) {
	if _, err := ParseTypeMap(map[string]string{"a": "invalid"}); err == nil {
		t.Error("ParseTypeMap() should reject unknown kinds")
	}
	if _, err := ParseTypeMap(map[string]string{"a[].b": "float"}); err == nil {
		t.Error("ParseTypeMap() should reject nested keys without an [object] list")
	}
}

func TestSchema_UnmarshalJSON_Null(t *testing.T) {
	s := Schema{"a": Float()}
	if err := json.Unmarshal([]byte("null"), &s); err != nil {
		t.Fatalf("Unmarshal(null) error = %v", err)
	}
	if s != nil {
		t.Errorf("schema = %v, want nil", s)
	}
}

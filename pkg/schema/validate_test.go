package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func machineSchema() Schema {
	return Schema{
		"gcoder":               Object(),
		"platform.temperature": Float(),
		"extruders": Each(Schema{
			"fastFeedRate":  Float(),
			"nozzleZOffset": Float(),
		}),
	}
}

func TestValidate_Success(t *testing.T) {
	data := map[string]any{
		"gcoder":   map[string]any{},
		"platform": map[string]any{"temperature": 110},
		"extruders": []any{
			map[string]any{"fastFeedRate": 900, "nozzleZOffset": 0.0},
			map[string]any{"fastFeedRate": 900.0, "nozzleZOffset": 0.1},
		},
	}

	if err := Validate(machineSchema(), data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingNestedKey(t *testing.T) {
	data := map[string]any{
		"gcoder":    map[string]any{},
		"platform":  map[string]any{},
		"extruders": []any{map[string]any{"fastFeedRate": 900, "nozzleZOffset": 0}},
	}

	err := Validate(machineSchema(), data)
	if err == nil {
		t.Fatal("Validate() should return error for missing field")
	}

	aggr, ok := err.(*AggregateError)
	if !ok {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}
	if len(aggr.Errors) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(aggr.Errors))
	}

	validErr, ok := aggr.Errors[0].(*ValidationError)
	if !ok {
		t.Fatalf("error should be *ValidationError, got %T", aggr.Errors[0])
	}
	if validErr.Key != "platform.temperature" {
		t.Errorf("error Key = %q, want platform.temperature", validErr.Key)
	}
	if validErr.Expected != "float" {
		t.Errorf("error Expected = %q, want float", validErr.Expected)
	}
	if !strings.Contains(validErr.Error(), "required") {
		t.Errorf("error message = %q, should mention required", validErr.Error())
	}
}

func TestValidate_WrongKind(t *testing.T) {
	data := map[string]any{
		"gcoder":    "yes",
		"platform":  map[string]any{"temperature": "hot"},
		"extruders": []any{map[string]any{"fastFeedRate": 900, "nozzleZOffset": 0}},
	}

	err := Validate(machineSchema(), data)
	keys := FailedKeys(err)
	want := []string{"gcoder", "platform.temperature"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("FailedKeys() = %v, want %v", keys, want)
	}
}

func TestValidate_IndexedElementKeys(t *testing.T) {
	data := map[string]any{
		"gcoder":   map[string]any{},
		"platform": map[string]any{"temperature": 110},
		"extruders": []any{
			map[string]any{"fastFeedRate": 900, "nozzleZOffset": 0},
			map[string]any{"nozzleZOffset": "low"},
		},
	}

	keys := FailedKeys(Validate(machineSchema(), data))
	want := []string{"extruders[1].fastFeedRate", "extruders[1].nozzleZOffset"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("FailedKeys() = %v, want %v", keys, want)
	}
}

func TestValidate_EmptyExtruderList(t *testing.T) {
	data := map[string]any{
		"gcoder":    map[string]any{},
		"platform":  map[string]any{"temperature": 110},
		"extruders": []any{},
	}

	keys := FailedKeys(Validate(machineSchema(), data))
	if !reflect.DeepEqual(keys, []string{"extruders"}) {
		t.Errorf("FailedKeys() = %v, want [extruders]", keys)
	}
}

func TestValidate_IntermediateNotObject(t *testing.T) {
	s := Schema{"platform.waitingPosition.x": Float()}
	data := map[string]any{"platform": map[string]any{"waitingPosition": 3}}

	keys := FailedKeys(Validate(s, data))
	if !reflect.DeepEqual(keys, []string{"platform.waitingPosition.x"}) {
		t.Errorf("FailedKeys() = %v", keys)
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(Schema{}, map[string]any{"x": 1}); err != nil {
		t.Errorf("Validate() with empty schema = %v, want nil", err)
	}
	if err := Validate(nil, nil); err != nil {
		t.Errorf("Validate() with nil schema = %v, want nil", err)
	}
}

func TestLookup(t *testing.T) {
	data := map[string]any{"platform": map[string]any{"waitingPosition": map[string]any{"z": 10}}}

	v, ok := Lookup(data, "platform.waitingPosition.z")
	if !ok || v != 10 {
		t.Errorf("Lookup() = %v, %v", v, ok)
	}
	if _, ok := Lookup(data, "platform.temperature"); ok {
		t.Error("Lookup() found a missing key")
	}
}

func TestAggregateError_String(t *testing.T) {
	err := &AggregateError{Errors: []error{
		&ValidationError{Key: "a", Reason: "required", Expected: "float"},
		&ValidationError{Key: "b", Reason: "bad", Expected: "object", Value: 1},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("Error() = %q", msg)
	}
	if !strings.Contains(msg, `field "b": bad (expected object, got int)`) {
		t.Errorf("Error() = %q", msg)
	}
}

func TestValidationErrors_Wrapped(t *testing.T) {
	inner := &AggregateError{Errors: []error{&ValidationError{Key: "k", Reason: "required", Expected: "float"}}}
	wrapped := errors.Join(errors.New("stage rejected config"), inner)

	if got := ValidationErrors(wrapped); len(got) != 1 {
		t.Errorf("ValidationErrors() = %v", got)
	}
	if ValidationErrors(errors.New("plain")) != nil {
		t.Error("ValidationErrors() of plain error should be nil")
	}
}

package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// eachSep joins a list key with the keys of its nested element schema.
const eachSep = "[]."

// Flatten returns the schema as key path -> kind name.
// Nested element schemas of Each appear as "extruders[].fastFeedRate".
func (s Schema) Flatten() map[string]string {
	out := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			continue
		}
		out[key] = typ.Name()
		if each, ok := typ.(*EachType); ok {
			for nested, kind := range each.fields.Flatten() {
				out[key+eachSep+nested] = kind
			}
		}
	}
	return out
}

// MarshalJSON serializes the schema as a flat map of key paths to type strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
	}

	return json.Marshal(s.Flatten())
}

// UnmarshalJSON deserializes the schema from a flat map of key paths to type strings.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Fallback: try map[string]any for cases where JSON decodes to mixed types
		var rawAny map[string]any
		if errAny := json.Unmarshal(data, &rawAny); errAny != nil {
			return err
		}
		raw = make(map[string]string, len(rawAny))
		for key, value := range rawAny {
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %s: expected string type, got %T", key, value)
			}
			raw[key] = str
		}
	}

	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// ParseTypeMap converts a flat map of key paths to type strings into a Schema.
// Example: {"platform.temperature": "float", "extruders": "[object]", "extruders[].fastFeedRate": "float"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	nested := make(map[string]map[string]string)

	keys := make([]string, 0, len(typeMap))
	for k := range typeMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		typeStr := typeMap[key]
		if list, rest, ok := strings.Cut(key, eachSep); ok {
			if nested[list] == nil {
				nested[list] = make(map[string]string)
			}
			nested[list][rest] = typeStr
			continue
		}
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}

	for list, fields := range nested {
		if _, ok := result[list].(*EachType); !ok {
			return nil, fmt.Errorf("field %s: nested keys require an [object] list", list)
		}
		inner, err := ParseTypeMap(fields)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", list, err)
		}
		result[list] = Each(inner)
	}

	return result, nil
}

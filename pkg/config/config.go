// Package config loads raw stage configuration documents and decodes validated
// documents into typed domain values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Document is a raw, unvalidated configuration tree as read from YAML or JSON.
type Document map[string]any

// Format is the encoding of a configuration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension. Anything that is not ".json" is YAML.
func FormatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads a configuration file (YAML or JSON, by extension).
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	doc, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a configuration document from raw bytes.
// An empty input yields an empty document.
func Parse(data []byte, format Format) (Document, error) {
	doc := Document{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse json config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Lookup resolves a dotted key path such as "platform.waitingPosition.z".
func (d Document) Lookup(path string) (any, bool) {
	return schema.Lookup(d, path)
}

// Validate checks the document against a requirement schema.
func (d Document) Validate(s schema.Schema) error {
	return schema.Validate(s, d)
}

// Decode maps the document onto a Configuration.
// The document is expected to have been validated already; unknown keys are ignored.
func Decode(doc Document) (*domain.Configuration, error) {
	var cfg domain.Configuration
	if err := DecodeInto(doc, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DecodeInto maps the document onto any mapstructure-tagged struct.
func DecodeInto(doc Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

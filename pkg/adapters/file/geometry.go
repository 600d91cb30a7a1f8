package file

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Layers is the on-disk layout of a geometry file:
//
//	layers:
//	  - positionZ: 0.2
//	    paths:          # indexed by extruder id
//	      - - [{x: 0, y: 0}, {x: 10, y: 0}, {x: 10, y: 10}]
//	      - []
type Layers struct {
	Layers []*domain.GeometryPayload `json:"layers" yaml:"layers"`
}

// LoadGeometry reads a geometry file (YAML or JSON, by extension).
func LoadGeometry(path string) ([]*domain.GeometryPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry: %w", err)
	}
	layers, err := ParseGeometry(data, config.FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layers, nil
}

// ParseGeometry decodes layers from raw bytes.
func ParseGeometry(data []byte, format config.Format) ([]*domain.GeometryPayload, error) {
	var doc Layers
	switch format {
	case config.FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse json geometry: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml geometry: %w", err)
		}
	}
	for i, l := range doc.Layers {
		if l == nil {
			return nil, fmt.Errorf("layer %d is empty", i)
		}
	}
	return doc.Layers, nil
}

// Payloads converts layers to the payload variant accepted by a G-coder stage.
func Payloads(layers []*domain.GeometryPayload) []domain.Payload {
	out := make([]domain.Payload, len(layers))
	for i, l := range layers {
		out[i] = l
	}
	return out
}

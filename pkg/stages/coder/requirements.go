package coder

import (
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/aretw0/gcoder/pkg/schema"
)

// Kind is the registry key of the G-coder stage.
const Kind = "gcoder"

// Requirements returns the configuration keys the stage needs.
func Requirements() schema.Schema {
	return schema.Schema{
		"gcoder":                     schema.Object(),
		"scalingFactor":              schema.Float(),
		"platform":                   schema.Object(),
		"platform.temperature":       schema.Float(),
		"platform.waitingPosition.x": schema.Float(),
		"platform.waitingPosition.y": schema.Float(),
		"platform.waitingPosition.z": schema.Float(),
		"extruders": schema.Each(schema.Schema{
			"nozzleZOffset":           schema.Float(),
			"fastFeedRate":            schema.Float(),
			"fastExtrusionSpeed":      schema.Float(),
			"defaultExtrusionSpeed":   schema.Float(),
			"extrusionTemperature":    schema.Float(),
			"reversalExtrusionSpeed":  schema.Float(),
			"coordinateSystemOffsetX": schema.Float(),
		}),
	}
}

// Register declares the stage requirements in reg.
func Register(reg *registry.Registry) {
	reg.Register(Kind, Requirements())
}

package domain

// Point3 is a position in machine space.
type Point3 struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
	Z float64 `json:"z" yaml:"z" mapstructure:"z"`
}

// Platform describes the heated build platform.
type Platform struct {
	Temperature     float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	WaitingPosition Point3  `json:"waitingPosition" yaml:"waitingPosition" mapstructure:"waitingPosition"`
}

// ExtruderProfile holds the speed and temperature profile of one extruder.
// Speeds are in mm/min (feed rates) and RPM (extrusion speeds), temperatures in Celsius.
type ExtruderProfile struct {
	NozzleZOffset           float64 `json:"nozzleZOffset" yaml:"nozzleZOffset" mapstructure:"nozzleZOffset"`
	FastFeedRate            float64 `json:"fastFeedRate" yaml:"fastFeedRate" mapstructure:"fastFeedRate"`
	FastExtrusionSpeed      float64 `json:"fastExtrusionSpeed" yaml:"fastExtrusionSpeed" mapstructure:"fastExtrusionSpeed"`
	DefaultExtrusionSpeed   float64 `json:"defaultExtrusionSpeed" yaml:"defaultExtrusionSpeed" mapstructure:"defaultExtrusionSpeed"`
	ExtrusionTemperature    float64 `json:"extrusionTemperature" yaml:"extrusionTemperature" mapstructure:"extrusionTemperature"`
	ReversalExtrusionSpeed  float64 `json:"reversalExtrusionSpeed" yaml:"reversalExtrusionSpeed" mapstructure:"reversalExtrusionSpeed"`
	CoordinateSystemOffsetX float64 `json:"coordinateSystemOffsetX" yaml:"coordinateSystemOffsetX" mapstructure:"coordinateSystemOffsetX"`
}

// GCoderOptions are the settings found under the "gcoder" namespace key.
type GCoderOptions struct {
	// Comments enables per-polygon and per-point trace comments in layer payloads.
	Comments bool `json:"comments" yaml:"comments" mapstructure:"comments"`
}

// Configuration is the validated parameter set a compiler stage works with.
// It is immutable once a stage is initialized; re-initialization replaces it wholesale.
type Configuration struct {
	ScalingFactor float64           `json:"scalingFactor" yaml:"scalingFactor" mapstructure:"scalingFactor"`
	Platform      Platform          `json:"platform" yaml:"platform" mapstructure:"platform"`
	Extruders     []ExtruderProfile `json:"extruders" yaml:"extruders" mapstructure:"extruders"`
	GCoder        GCoderOptions     `json:"gcoder" yaml:"gcoder" mapstructure:"gcoder"`
}

// ExtruderCount returns the number of configured extruders.
func (c *Configuration) ExtruderCount() int {
	return len(c.Extruders)
}

// MultiExtruder reports whether tool-change bracketing applies.
func (c *Configuration) MultiExtruder() bool {
	return len(c.Extruders) > 1
}

package domain

// Point2D is a vertex of a toolpath polygon.
type Point2D struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Polygon is an ordered list of vertices, closed implicitly.
// The order is the physical deposition order and is never changed.
type Polygon []Point2D

// GeometryPayload carries the toolpaths of one layer.
// Paths is indexed by extruder id.
type GeometryPayload struct {
	PositionZ float64     `json:"positionZ" yaml:"positionZ" mapstructure:"positionZ"`
	Paths     [][]Polygon `json:"paths" yaml:"paths" mapstructure:"paths"`
}

// Kind implements Payload.
func (g *GeometryPayload) Kind() PayloadKind { return KindGeometry }

func (g *GeometryPayload) payload() {}

// PointCount returns the total number of vertices for one extruder.
func (g *GeometryPayload) PointCount(extruderID int) int {
	if extruderID < 0 || extruderID >= len(g.Paths) {
		return 0
	}
	n := 0
	for _, poly := range g.Paths[extruderID] {
		n += len(poly)
	}
	return n
}

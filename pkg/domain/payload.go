package domain

// PayloadKind tags the closed set of payload types.
type PayloadKind string

const (
	KindGeometry    PayloadKind = "geometry"
	KindInstruction PayloadKind = "instruction"
)

// Payload is the unit of data handed from one stage to the next.
// The set is sealed: only *GeometryPayload and *InstructionPayload implement it.
type Payload interface {
	Kind() PayloadKind
	payload()
}

// KindOf returns the kind of p, or "nil" for a nil payload (typed or untyped).
func KindOf(p Payload) string {
	switch v := p.(type) {
	case nil:
		return "nil"
	case *GeometryPayload:
		if v == nil {
			return "nil"
		}
	case *InstructionPayload:
		if v == nil {
			return "nil"
		}
	}
	return string(p.Kind())
}

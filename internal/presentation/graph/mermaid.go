package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/ports"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// States maps a stage position to its lifecycle state.
	States map[int]domain.StageState
	// Rejected counts payloads a stage refused, keyed by position.
	Rejected map[int]int
}

// GenerateMermaid produces a Mermaid flowchart of a stage chain.
// The producer of geometry appears as a circle, transformers as subroutines
// and sinks as cylinders. Edges carry the payload kind flowing across them.
func GenerateMermaid(stages []ports.Stage, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    layers((\"layers\"))\n")

	prev := "layers"
	for i, s := range stages {
		id := nodeID(i, s.Kind())

		opener, closer := "[", "]"
		switch {
		case s.Emits() == "":
			opener, closer = "[(", ")]" // Cylinder
		case s.Accepts() != s.Emits():
			opener, closer = "[[", "]]" // Subroutine
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, s.Kind(), closer)
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", prev, s.Accepts(), id)
		prev = id
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef initialized fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef streaming fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef finished fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef rejected fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")

		for i, s := range stages {
			id := nodeID(i, s.Kind())
			if overlay.Rejected[i] > 0 {
				fmt.Fprintf(&sb, "    class %s rejected;\n", id)
				continue
			}
			state, ok := overlay.States[i]
			if !ok || state == domain.StateUninitialized {
				continue
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", id, state)
		}
	}

	return sb.String()
}

// Snapshot builds an overlay from the current state of each stage.
func Snapshot(stages []ports.Stage) *GraphOverlay {
	o := &GraphOverlay{States: make(map[int]domain.StageState, len(stages))}
	for i, s := range stages {
		o.States[i] = s.State()
	}
	return o
}

func nodeID(i int, kind string) string {
	return fmt.Sprintf("s%d_%s", i, sanitizeMermaidID(kind))
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

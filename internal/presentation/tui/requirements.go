package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/gcoder/pkg/schema"
)

// RequirementsMarkdown renders the configuration keys of each stage kind as markdown tables.
func RequirementsMarkdown(kinds []string, lookup func(kind string) (schema.Schema, bool)) string {
	var sb strings.Builder
	sb.WriteString("# Stage requirements\n")
	for _, kind := range kinds {
		s, ok := lookup(kind)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", kind)

		flat := s.Flatten()
		if len(flat) == 0 {
			sb.WriteString("No configuration keys.\n")
			continue
		}
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("| Key | Kind |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", k, flat[k])
		}
	}
	return sb.String()
}

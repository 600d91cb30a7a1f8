package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/gcoder/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestPrintBanner_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.NotContains(t, out, "\x1b[")
}

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	Status(&buf, true, "wrote %d lines", 42)
	Status(&buf, false, "rejected")

	assert.Equal(t, "✔ wrote 42 lines\n✘ rejected\n", buf.String())
}

func TestRequirementsMarkdown(t *testing.T) {
	reqs := map[string]schema.Schema{
		"gcoder": {
			"scalingFactor": schema.Float(),
			"extruders":     schema.Each(schema.Schema{"fastFeedRate": schema.Float()}),
		},
		"memory": {},
	}
	lookup := func(kind string) (schema.Schema, bool) {
		s, ok := reqs[kind]
		return s, ok
	}

	md := RequirementsMarkdown([]string{"gcoder", "memory", "unknown"}, lookup)

	assert.Contains(t, md, "## gcoder\n")
	assert.Contains(t, md, "| `extruders` | [object] |\n| `extruders[].fastFeedRate` | float |\n| `scalingFactor` | float |\n")
	assert.Contains(t, md, "## memory\n\nNo configuration keys.\n")
	assert.False(t, strings.Contains(md, "unknown"))
}

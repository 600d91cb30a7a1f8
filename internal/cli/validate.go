package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/internal/presentation/tui"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/schema"
)

// ValidateOptions selects what a configuration is checked against.
type ValidateOptions struct {
	ConfigPath string
	// SchemaPath names a requirement schema in its flat JSON form, as served by
	// GET /requirements/{kind}. Empty means the G-coder requirements.
	SchemaPath string
}

// Validate checks a machine configuration and reports the outcome on w.
func Validate(w io.Writer, opts ValidateOptions) error {
	if w == nil {
		w = os.Stdout
	}
	doc, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.SchemaPath != "" {
		err = validateAgainst(doc, opts.SchemaPath)
	} else {
		err = createEngine(false, logging.NewNop()).Validate(doc)
	}
	if err != nil {
		tui.Status(w, false, "Configuration is invalid")
		printErrors(w, err)
		return err
	}
	tui.Status(w, true, "Configuration is valid (%s)", opts.ConfigPath)
	return nil
}

func validateAgainst(doc config.Document, schemaPath string) error {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	var s schema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid schema %s: %w", schemaPath, err)
	}
	if err := doc.Validate(s); err != nil {
		return &domain.ConfigInvalidError{
			Stage: filepath.Base(schemaPath),
			Keys:  schema.FailedKeys(err),
			Err:   err,
		}
	}
	return nil
}

// PrintRequirements writes the configuration keys of the given stage kinds,
// or of every registered kind when none is named.
// Markdown is rendered with glamour when render is set.
func PrintRequirements(w io.Writer, kinds []string, render bool) error {
	engine := createEngine(false, logging.NewNop())
	reg := engine.Registry()
	if len(kinds) == 0 {
		kinds = reg.Kinds()
	}
	for _, k := range kinds {
		if _, ok := reg.Requirements(k); !ok {
			return fmt.Errorf("unknown stage kind %q (known: %v)", k, reg.Kinds())
		}
	}

	md := tui.RequirementsMarkdown(kinds, reg.Requirements)
	if render {
		out, err := tui.NewRenderer()(md)
		if err == nil {
			md = out
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

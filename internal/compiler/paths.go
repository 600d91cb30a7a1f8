package compiler

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/gcode"
)

// Switch and wipe directives are comment lines read by the post-processor.
func switchDirective(id int) string { return fmt.Sprintf("GSWITCH T%d", id) }
func wipeDirective(id int) string   { return fmt.Sprintf("GWIPE T%d", id) }

// Paths converts one layer into a layer payload.
//
// Every configured extruder gets its bracketing even when the layer holds no
// polygons for it; extruders missing from g.Paths count as empty. A layer that
// references an unconfigured extruder is rejected whole with a *domain.ConfigMismatchError.
func (c *Compiler) Paths(g *domain.GeometryPayload) (*domain.InstructionPayload, error) {
	configured := c.cfg.ExtruderCount()
	if len(g.Paths) > configured {
		return nil, &domain.ConfigMismatchError{ExtruderID: len(g.Paths) - 1, Configured: configured}
	}

	multi := c.cfg.MultiExtruder()
	comments := c.cfg.GCoder.Comments

	var p gcode.Program
	p.Note(fmt.Sprintf("PATHS for: %d %s", configured, plural("Extruder", configured)))

	for id, e := range c.cfg.Extruders {
		if multi {
			p.Note(switchDirective(id))
		}

		z := g.PositionZ + e.NozzleZOffset
		feedRate := c.cfg.ScalingFactor * e.FastFeedRate
		extrusionSpeed := c.cfg.ScalingFactor * e.FastExtrusionSpeed
		c.logger.Debug("compiling extruder paths",
			slog.Int("extruder", id),
			slog.Float64("z", z),
			slog.Float64("feed_rate", feedRate),
			slog.Float64("extrusion_speed", extrusionSpeed),
			slog.Int("points", g.PointCount(id)),
		)

		if id < len(g.Paths) {
			for _, poly := range g.Paths[id] {
				if comments {
					p.Note(fmt.Sprintf("POLYGON %d Points", len(poly)))
				}
				for _, pt := range poly {
					if comments {
						p.Note(fmt.Sprintf("POINT [%s, %s]", gcode.FormatFloat(pt.X), gcode.FormatFloat(pt.Y)))
					}
					p.Add(gcode.Move(pt.X, pt.Y, z, feedRate))
				}
			}
		}

		p.Add(
			gcode.Cmd(gcode.CmdExtruderSpeed, gcode.Param('R', e.ReversalExtrusionSpeed), gcode.Tool(id)),
			gcode.Cmd(gcode.CmdExtruderRev).WithComment("reverse"),
		)
		if multi {
			p.Note(wipeDirective(id))
		}
	}

	return payload(domain.PhaseLayer, p.Lines()), nil
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/gcode"
	"gopkg.in/yaml.v3"
)

var banner = []string{
	"gcoder toolpath compiler",
	"This file contains digital fabrication directives in gcode format",
	"For your 3D printer",
}

// Opening returns the payloads emitted when a stream starts, in order:
// header, machine, extruder and platform initialization, homing, warm-up and anchor.
func (c *Compiler) Opening() ([]*domain.InstructionPayload, error) {
	header, err := c.Header()
	if err != nil {
		return nil, err
	}
	return []*domain.InstructionPayload{
		header,
		c.MachineInit(),
		c.ExtruderInit(),
		c.PlatformInit(),
		c.Homing(),
		c.Warmup(),
		c.Anchor(),
	}, nil
}

// Header echoes the banner and the effective configuration as comments.
func (c *Compiler) Header() (*domain.InstructionPayload, error) {
	var p gcode.Program
	for _, line := range banner {
		p.Note(line)
	}

	echo, err := yaml.Marshal(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to echo configuration: %w", err)
	}
	for _, line := range strings.Split(strings.TrimRight(string(echo), "\n"), "\n") {
		p.Note("* " + line)
	}
	return payload(domain.PhaseHeader, p.Lines()), nil
}

// MachineInit selects units and positioning mode, and stores per-extruder
// coordinate offsets on multi-extruder machines.
func (c *Compiler) MachineInit() *domain.InstructionPayload {
	var p gcode.Program
	p.Add(
		gcode.Cmd(gcode.CmdMillimeters).WithComment("set units to mm"),
		gcode.Cmd(gcode.CmdAbsolute).WithComment("absolute positioning mode"),
	)
	if c.cfg.MultiExtruder() {
		for i, e := range c.cfg.Extruders {
			p.Add(gcode.Cmd(gcode.CmdSetOffset,
				gcode.Param('P', float64(i+1)),
				gcode.Param('X', e.CoordinateSystemOffsetX),
				gcode.Param('Y', 0),
				gcode.Param('Z', -0.3),
			))
		}
	}
	return payload(domain.PhaseMachineInit, p.Lines())
}

// ExtruderInit stops every extruder motor, sets its default speed and heats it.
func (c *Compiler) ExtruderInit() *domain.InstructionPayload {
	var p gcode.Program
	for i, e := range c.cfg.Extruders {
		p.Add(
			gcode.Cmd(gcode.CmdExtruderOff, gcode.Tool(i)).
				WithComment(fmt.Sprintf("make sure motor for extruder %d is stopped", i)),
			gcode.Cmd(gcode.CmdExtruderSpeed, gcode.Param('R', e.DefaultExtrusionSpeed), gcode.Tool(i)).
				WithComment(fmt.Sprintf("set extruder %d speed to the default %s RPM", i, gcode.FormatFloat(e.DefaultExtrusionSpeed))),
			gcode.Cmd(gcode.CmdSetTemperature, gcode.Param('S', e.ExtrusionTemperature), gcode.Tool(i)).
				WithComment(fmt.Sprintf("set temperature of extruder %d to %s degrees Celsius", i, gcode.FormatFloat(e.ExtrusionTemperature))),
		)
	}
	return payload(domain.PhaseExtruderInit, p.Lines())
}

// PlatformInit heats the build platform. Its heater is tied to tool 0.
func (c *Compiler) PlatformInit() *domain.InstructionPayload {
	t := c.cfg.Platform.Temperature
	var p gcode.Program
	p.Add(gcode.Cmd(gcode.CmdWaitPlatform, gcode.Param('S', t), gcode.Tool(0)).
		WithComment(fmt.Sprintf("heat the build-platform to %s Celsius", gcode.FormatFloat(t))))
	return payload(domain.PhasePlatformInit, p.Lines())
}

// Homing drives every axis to its endstops and recalls the stored home offsets.
func (c *Compiler) Homing() *domain.InstructionPayload {
	var p gcode.Program
	p.Note("go to home position")
	p.Add(
		gcode.Cmd(gcode.CmdHomeMax, gcode.Flag('Z'), gcode.Param('F', 800)).WithComment("home Z axis maximum"),
		gcode.Cmd(gcode.CmdSetPosition, gcode.Param('Z', 5)).WithComment("set Z to 5"),
		gcode.Cmd(gcode.CmdMove, gcode.Param('Z', 0)).WithComment("move Z down 0"),
		gcode.Cmd(gcode.CmdHomeMax, gcode.Flag('Z'), gcode.Param('F', 100)).WithComment("home Z axis maximum"),
		gcode.Cmd(gcode.CmdHomeMin, gcode.Flag('X'), gcode.Flag('Y'), gcode.Param('F', 2500)).WithComment("home XY axes minimum"),
		gcode.Cmd(gcode.CmdRecallHome, gcode.Flag('X'), gcode.Flag('Y'), gcode.Flag('Z'), gcode.Flag('A'), gcode.Flag('B')).
			WithComment("recall stored home offsets for XYZAB axis"),
	)
	if c.cfg.MultiExtruder() {
		p.Add(gcode.Cmd(gcode.CmdUseOffsets).WithComment("first work coordinate system"))
	}
	return payload(domain.PhaseHoming, p.Lines())
}

// Warmup parks every extruder at the waiting position and waits for each to reach temperature.
func (c *Compiler) Warmup() *domain.InstructionPayload {
	w := c.cfg.Platform.WaitingPosition
	var p gcode.Program
	for _, e := range c.cfg.Extruders {
		p.Add(gcode.Move(w.X, w.Y, w.Z, e.FastFeedRate).WithComment("go to waiting position"))
	}
	for i := range c.cfg.Extruders {
		p.Add(gcode.Cmd(gcode.CmdWaitTool, gcode.Tool(i)).
			WithComment(fmt.Sprintf("wait for tool %d to reach temperature", i)))
	}
	return payload(domain.PhaseWarmup, p.Lines())
}

// Anchor lowers the nozzle and primes the extruder before the first layer.
func (c *Compiler) Anchor() *domain.InstructionPayload {
	var p gcode.Program
	p.Note("create anchor")
	p.Add(
		gcode.Cmd(gcode.CmdMove, gcode.Param('Z', 0.6), gcode.Param('F', 300)).WithComment("position height"),
		gcode.Cmd(gcode.CmdExtruderSpeed, gcode.Param('R', 4)).WithComment("set extruder speed"),
		gcode.Cmd(gcode.CmdExtruderOn).WithComment("start extruder"),
		gcode.Cmd(gcode.CmdDwell, gcode.Param('P', 1500)),
	)
	return payload(domain.PhaseAnchor, p.Lines())
}

// Footer closes a finished stream. It is the final payload.
func (c *Compiler) Footer() *domain.InstructionPayload {
	var p gcode.Program
	c.cooldown(&p)
	p.Note("That's all folks!")
	out := payload(domain.PhaseFooter, p.Lines())
	out.Final = true
	return out
}

// Abort closes a stream torn down before it finished. It is the final payload.
func (c *Compiler) Abort() *domain.InstructionPayload {
	var p gcode.Program
	p.Note("stream aborted")
	c.cooldown(&p)
	out := payload(domain.PhaseAbort, p.Lines())
	out.Final = true
	return out
}

func (c *Compiler) cooldown(p *gcode.Program) {
	for i := range c.cfg.Extruders {
		p.Add(
			gcode.Cmd(gcode.CmdSetTemperature, gcode.Param('S', 0), gcode.Tool(i)).WithComment("set extruder temperature to 0"),
			gcode.Cmd(gcode.CmdWaitPlatform, gcode.Param('S', 0), gcode.Tool(i)).WithComment("set heated-build-platform temperature to 0"),
		)
	}
	p.Add(gcode.Cmd(gcode.CmdHomeMax, gcode.Flag('Z'), gcode.Param('F', 500)).WithComment("home Z axis maximum"))
}

package gcode

// Command words emitted by the compiler.
const (
	CmdMove           = "G1"   // linear move
	CmdDwell          = "G4"   // pause for P milliseconds
	CmdSetOffset      = "G10"  // store a coordinate system offset
	CmdMillimeters    = "G21"  // units are millimeters
	CmdUseOffsets     = "G54"  // apply the stored coordinate system
	CmdAbsolute       = "G90"  // absolute positioning
	CmdSetPosition    = "G92"  // redefine the current position
	CmdHomeMin        = "G161" // home axes towards their minimum endstops
	CmdHomeMax        = "G162" // home axes towards their maximum endstops
	CmdWaitTool       = "M6"   // wait for the tool to reach temperature
	CmdExtruderOn     = "M101"
	CmdExtruderRev    = "M102"
	CmdExtruderOff    = "M103"
	CmdSetTemperature = "M104"
	CmdExtruderSpeed  = "M108"
	CmdWaitPlatform   = "M109" // set platform temperature
	CmdRecallHome     = "M132" // recall home offsets from EEPROM
)

// Move is "G1" to the given position at feed rate f.
func Move(x, y, z, f float64) Line {
	return Cmd(CmdMove, Param('X', x), Param('Y', y), Param('Z', z), Param('F', f))
}

// Tool is a "T<id>" argument.
func Tool(id int) Arg {
	return Param('T', float64(id))
}

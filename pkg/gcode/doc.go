// Package gcode builds and reads the textual instruction lines sent to the machine.
//
// A line is a command word followed by letter-value arguments and an optional
// parenthesized comment:
//
//	G1 X10 Y-3.5 Z0.2 F900
//	M102 (reverse)
//	(GSWITCH T1)
//
// Numbers are printed in fixed notation with trailing zeros removed.
package gcode

package gcode

import (
	"strconv"
	"strings"
)

// Arg is one argument of a command: a letter with a numeric value, or a bare letter.
type Arg struct {
	Letter byte
	Value  float64
	Bare   bool
}

// Param builds a letter-value argument such as X10 or F900.
func Param(letter byte, value float64) Arg {
	return Arg{Letter: letter, Value: value}
}

// Flag builds a bare letter argument such as the Z in "G162 Z F800".
func Flag(letter byte) Arg {
	return Arg{Letter: letter, Bare: true}
}

func (a Arg) String() string {
	if a.Bare {
		return string(a.Letter)
	}
	return string(a.Letter) + FormatFloat(a.Value)
}

// Line is a single instruction. A line without a command is a comment-only line.
type Line struct {
	Command string
	Args    []Arg
	Comment string
}

// Cmd builds a command line.
func Cmd(command string, args ...Arg) Line {
	return Line{Command: command, Args: args}
}

// Note builds a comment-only line.
func Note(text string) Line {
	return Line{Comment: text}
}

// WithComment returns a copy of l carrying a trailing comment.
func (l Line) WithComment(text string) Line {
	l.Comment = text
	return l
}

func (l Line) String() string {
	var b strings.Builder
	b.WriteString(l.Command)
	for _, a := range l.Args {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	if l.Comment != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('(')
		b.WriteString(sanitizeComment(l.Comment))
		b.WriteByte(')')
	}
	return b.String()
}

// Comments cannot nest; parentheses inside the text would end them early.
var commentReplacer = strings.NewReplacer("(", "[", ")", "]", "\n", " ", "\r", "")

func sanitizeComment(text string) string {
	return commentReplacer.Replace(text)
}

// FormatFloat prints v in fixed notation with at most six decimals and no trailing zeros.
// Negative zero prints as "0".
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// Program accumulates lines in order.
type Program struct {
	lines []string
}

// Add appends lines to the program.
func (p *Program) Add(lines ...Line) *Program {
	for _, l := range lines {
		p.lines = append(p.lines, l.String())
	}
	return p
}

// Note appends a comment-only line.
func (p *Program) Note(text string) *Program {
	return p.Add(Note(text))
}

// Len returns the number of lines written so far.
func (p *Program) Len() int { return len(p.lines) }

// Lines returns the rendered lines. The program must not be used afterwards.
func (p *Program) Lines() []string {
	return p.lines
}

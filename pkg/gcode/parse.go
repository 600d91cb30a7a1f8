package gcode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Command is a parsed instruction line.
type Command struct {
	Name    string
	Args    map[string]string
	Comment string
	Raw     string
}

var (
	reParenComment = regexp.MustCompile(`\(([^)]*)\)`)
	reCommandWord  = regexp.MustCompile(`^[A-Z][0-9]+(\.[0-9]+)?$`)
)

// Parse reads one line. Blank lines yield nil.
// Comment-only lines yield a Command with an empty Name.
func Parse(line string) (*Command, error) {
	ln := strings.TrimSpace(line)
	if ln == "" {
		return nil, nil
	}

	var comments []string
	for _, m := range reParenComment.FindAllStringSubmatch(ln, -1) {
		comments = append(comments, strings.TrimSpace(m[1]))
	}
	ln = strings.TrimSpace(reParenComment.ReplaceAllString(ln, " "))
	if idx := strings.IndexByte(ln, ';'); idx >= 0 {
		comments = append(comments, strings.TrimSpace(ln[idx+1:]))
		ln = strings.TrimSpace(ln[:idx])
	}

	cmd := &Command{Args: map[string]string{}, Comment: strings.Join(comments, " "), Raw: line}
	if ln == "" {
		return cmd, nil
	}

	fields := strings.Fields(ln)
	cmd.Name = strings.ToUpper(fields[0])
	if !reCommandWord.MatchString(cmd.Name) {
		return nil, fmt.Errorf("invalid command word %q in %q", fields[0], line)
	}
	for _, f := range fields[1:] {
		// Bare letters like the "X Y" in "G161 X Y F2500".
		k := strings.ToUpper(f[:1])
		if k[0] < 'A' || k[0] > 'Z' {
			return nil, fmt.Errorf("invalid argument %q in %q", f, line)
		}
		cmd.Args[k] = strings.TrimSpace(f[1:])
	}
	return cmd, nil
}

// IsComment reports whether the line carried no command.
func (c *Command) IsComment() bool { return c.Name == "" }

// Has reports whether the argument letter is present, with or without a value.
func (c *Command) Has(key string) bool {
	_, ok := c.Args[strings.ToUpper(key)]
	return ok
}

// Float returns the numeric value of an argument.
func (c *Command) Float(key string) (float64, bool, error) {
	v, ok := c.Args[strings.ToUpper(key)]
	if !ok {
		return 0, false, nil
	}
	if v == "" {
		return 0, true, fmt.Errorf("empty arg %s in %q", key, c.Raw)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, true, fmt.Errorf("invalid arg %s in %q: %w", key, c.Raw, err)
	}
	return f, true, nil
}

// ParseAll reads a block of text, skipping blank lines.
func ParseAll(text string) ([]*Command, error) {
	var out []*Command
	for i, line := range strings.Split(text, "\n") {
		cmd, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if cmd != nil {
			out = append(out, cmd)
		}
	}
	return out, nil
}

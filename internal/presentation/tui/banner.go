package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the gcoder banner and version to w.
// Colors are dropped when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct{ text, color string }{
		{`   __ _  ___ ___   __| | ___ _ __ `, "#fbbf24"},
		{`  / _` + "`" + ` |/ __/ _ \ / _` + "`" + ` |/ _ \ '__|`, "#f59e0b"},
		{` | (_| | (_| (_) | (_| |  __/ |   `, "#f97316"},
		{`  \__, |\___\___/ \__,_|\___|_|   `, "#ef4444"},
		{`  |___/                           `, "#dc2626"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}

// Status formats a one-line outcome, green when ok and red otherwise.
func Status(w io.Writer, ok bool, format string, args ...any) {
	p := termenv.NewOutput(w).ColorProfile()
	mark, color := "✔", "#22c55e"
	if !ok {
		mark, color = "✘", "#ef4444"
	}
	fmt.Fprintln(w, p.String(mark+" "+fmt.Sprintf(format, args...)).Foreground(p.Color(color)))
}

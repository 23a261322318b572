package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the pagebuilder banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"  _ __   __ _  __ _  ___ ", "#38bdf8"},
		{" | '_ \\ / _` |/ _` |/ _ \\", "#60a5fa"},
		{" | |_) | (_| | (_| |  __/", "#818cf8"},
		{" | .__/ \\__,_|\\__, |\\___|", "#a78bfa"},
		{" |_|          |___/  builder", "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}

package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`           _`, "#34d399"},
	{`  _ __ ___| | __ _ _   _`, "#2dd4bf"},
	{` | '__/ _ \ |/ _' | | | |`, "#22d3ee"},
	{` | | |  __/ | (_| | |_| |`, "#38bdf8"},
	{` |_|  \___|_|\__,_|\__, |`, "#60a5fa"},
	{`                   |___/`, "#818cf8"},
}

// PrintBanner writes the relay banner to w, followed by subtitle when set.
// Colors degrade to the profile of w.
func PrintBanner(w io.Writer, subtitle string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, out.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}

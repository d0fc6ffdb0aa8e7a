package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer formats agent output for a terminal.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour markdown renderer wrapping at width. On a
// non-terminal, or if glamour cannot be set up, text is passed through.
func NewRenderer(tty bool, width int) Renderer {
	if !tty {
		return Plain
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return Plain
	}
	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return markdown, err
		}
		return strings.TrimRight(out, "\n") + "\n", nil
	}
}

// Plain returns text unchanged, newline terminated.
func Plain(text string) (string, error) {
	return strings.TrimRight(text, "\n") + "\n", nil
}

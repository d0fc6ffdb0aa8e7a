package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v0.1.0")

	out := buf.String()
	assert.Contains(t, out, `|___/`)
	assert.Contains(t, out, "v0.1.0")
	// A bytes.Buffer is not a terminal, so no escape codes are emitted.
	assert.NotContains(t, out, "\x1b[")
}

func TestNewRenderer_NonTTY(t *testing.T) {
	r := NewRenderer(false, 80)
	out, err := r("**bold**\n\n")
	require.NoError(t, err)
	assert.Equal(t, "**bold**\n", out)
}

func TestNewRenderer_TTY(t *testing.T) {
	r := NewRenderer(true, 40)
	out, err := r("# Title\n\nsome *text*")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "text")
}

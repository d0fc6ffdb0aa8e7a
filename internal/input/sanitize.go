// Package input cleans user text before it reaches the agent graph.
package input

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxSize is the byte limit applied when none is configured.
	DefaultMaxSize = 8192
	// EnvMaxSize overrides the limit.
	EnvMaxSize = "RELAY_MAX_INPUT_SIZE"
)

var (
	ErrEmpty       = errors.New("input is empty")
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitize rejects oversized or malformed input and strips control
// characters other than newline, tab and carriage return. A limit below 1
// uses MaxSize. Surrounding whitespace is trimmed; input that is empty after
// trimming is rejected.
func Sanitize(s string, limit int) (string, error) {
	if limit < 1 {
		limit = MaxSize()
	}
	if len(s) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(s, unsafeControl) >= 0 {
		var b strings.Builder
		b.Grow(len(s))
		for _, r := range s {
			if !unsafeControl(r) {
				b.WriteRune(r)
			}
		}
		s = b.String()
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}
	return s, nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// MaxSize returns the limit from EnvMaxSize, or DefaultMaxSize when unset or invalid.
func MaxSize() int {
	if v := os.Getenv(EnvMaxSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxSize
}

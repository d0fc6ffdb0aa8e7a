package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
)

// Mask replaces every PII match in stored content.
const Mask = "***"

// Common patterns for NewPIIMiddleware.
var (
	PatternEmail = `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`
	PatternPhone = `\+?\d[\d\s().-]{7,}\d`
)

type piiMiddleware struct {
	next     ports.ChatMemory
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks matches of the patterns
// in message content before it is stored. Masking is one-way: Messages
// returns the masked text.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ChatMemory) ports.ChatMemory {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	// Copy so the caller's slice is left untouched.
	masked := make([]domain.Message, len(msgs))
	for i, msg := range msgs {
		for _, p := range m.patterns {
			msg.Content = p.ReplaceAllString(msg.Content, Mask)
		}
		masked[i] = msg
	}
	return m.next.Append(ctx, sessionID, masked...)
}

func (m *piiMiddleware) Messages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	return m.next.Messages(ctx, sessionID)
}

func (m *piiMiddleware) Clear(ctx context.Context, sessionID string) error {
	return m.next.Clear(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

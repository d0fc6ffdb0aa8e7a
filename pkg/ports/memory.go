package ports

import (
	"context"

	"github.com/aretw0/relay/pkg/domain"
)

// ChatMemory persists the message history of each session.
type ChatMemory interface {
	// Messages returns the history of a session, oldest first.
	// An unknown session has an empty history and is not an error.
	Messages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Append adds messages to the end of a session's history, in order.
	Append(ctx context.Context, sessionID string, msgs ...domain.Message) error

	// Clear removes a session's history.
	Clear(ctx context.Context, sessionID string) error

	// List returns the ids of all sessions with history.
	List(ctx context.Context) ([]string, error)
}

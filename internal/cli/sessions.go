package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/relay/pkg/ports"
)

// ListSessions prints the ids of stored sessions.
func ListSessions(ctx context.Context, mem ports.ChatMemory, out io.Writer) error {
	ids, err := mem.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// ShowSession prints the messages of a session as indented JSON.
func ShowSession(ctx context.Context, mem ports.ChatMemory, sessionID string, out io.Writer) error {
	msgs, err := mem.Messages(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %q: %w", sessionID, err)
	}
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// RemoveSessions clears the given sessions, or every stored one when all is
// set. It keeps going after a failure and reports the first error.
func RemoveSessions(ctx context.Context, mem ports.ChatMemory, ids []string, all bool, out io.Writer) error {
	if all {
		listed, err := mem.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		ids = listed
	}
	var first error
	for _, id := range ids {
		if err := mem.Clear(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			if first == nil {
				first = err
			}
			continue
		}
		fmt.Fprintf(out, "Removed session '%s'\n", id)
	}
	return first
}

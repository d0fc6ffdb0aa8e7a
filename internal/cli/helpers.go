package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
)

// isInterrupted reports whether err only means the user stopped the session.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// printSystemMessage writes a standardized system line.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// formatUsedAgents renders the agents that took part in a turn.
func formatUsedAgents(used []domain.UsedAgent) string {
	ids := make([]string, len(used))
	for i, u := range used {
		ids[i] = u.NodeID
	}
	return strings.Join(ids, " → ")
}

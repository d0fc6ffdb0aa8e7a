package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/input"
	"github.com/aretw0/relay/internal/presentation/tui"
	"github.com/aretw0/relay/pkg/domain"
)

// ChatOptions configures an interactive chat.
type ChatOptions struct {
	SessionID    string
	MaxInputSize int
	Render       tui.Renderer
	// Quiet suppresses prompts and system lines.
	Quiet bool
}

// Chat reads one message per line from in and writes the answers to out
// until in is exhausted, ctx is cancelled or the user types /exit.
//
// Lines starting with a slash are commands: /exit, /quit, /history and
// /clear. Failed turns are reported and the chat continues.
func Chat(ctx context.Context, eng *relay.Engine, in io.Reader, out io.Writer, opts ChatOptions) error {
	render := opts.Render
	if render == nil {
		render = tui.Plain
	}
	sessionID := opts.SessionID

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			readErr <- err
		}
		close(lines)
	}()

	for {
		if !opts.Quiet {
			fmt.Fprint(out, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := chatCommand(ctx, eng, out, sessionID, line)
			if err != nil {
				printSystemMessage(out, "error: %v", err)
			}
			if done {
				return nil
			}
			continue
		}

		clean, err := input.Sanitize(line, opts.MaxInputSize)
		if err != nil {
			printSystemMessage(out, "input rejected: %v", err)
			continue
		}

		resp, err := eng.Invoke(ctx, domain.Request{Input: clean, SessionID: sessionID})
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			printSystemMessage(out, "error: %v", err)
			continue
		}
		if sessionID == "" {
			sessionID = resp.SessionID
			if !opts.Quiet {
				printSystemMessage(out, "session '%s' active.", sessionID)
			}
		}
		if len(resp.UsedAgents) > 0 && !opts.Quiet {
			printSystemMessage(out, "agents: %s", formatUsedAgents(resp.UsedAgents))
		}

		text, err := render(resp.Output)
		if err != nil {
			text = resp.Output + "\n"
		}
		fmt.Fprint(out, text)
	}
}

// chatCommand runs a slash command. done reports whether the chat should end.
func chatCommand(ctx context.Context, eng *relay.Engine, out io.Writer, sessionID, line string) (done bool, err error) {
	switch strings.Fields(line)[0] {
	case "/exit", "/quit":
		return true, nil
	case "/history":
		if sessionID == "" {
			printSystemMessage(out, "no messages yet.")
			return false, nil
		}
		msgs, err := eng.Sessions().History(ctx, sessionID)
		if err != nil {
			return false, err
		}
		for _, m := range msgs {
			fmt.Fprintf(out, "%s: %s\n", m.Role, m.Content)
		}
		return false, nil
	case "/clear":
		if sessionID == "" {
			return false, nil
		}
		if err := eng.Sessions().Clear(ctx, sessionID); err != nil {
			return false, err
		}
		printSystemMessage(out, "session '%s' cleared.", sessionID)
		return false, nil
	}
	return false, errors.New("unknown command " + line)
}

package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
)

// Environment variables set for every invocation.
const (
	EnvSessionID = "RELAY_SESSION_ID"
	EnvChatID    = "RELAY_CHAT_ID"
	// EnvHistory holds the session history as a JSON array of messages.
	EnvHistory = "RELAY_HISTORY"
)

// ErrNoCommand is returned by New when argv is empty.
var ErrNoCommand = errors.New("process agent needs a command")

// Agent answers a node by running a local program. The input is written to
// the program's stdin and its trimmed stdout becomes the output.
type Agent struct {
	command string
	args    []string
	env     map[string]string
	dir     string
}

// Option configures an Agent.
type Option func(*Agent)

// WithEnv adds variables to the program's environment.
func WithEnv(env map[string]string) Option {
	return func(a *Agent) {
		a.env = env
	}
}

// WithDir sets the working directory of the program.
func WithDir(dir string) Option {
	return func(a *Agent) {
		a.dir = dir
	}
}

// New creates an agent running argv[0] with the remaining arguments.
func New(argv []string, opts ...Option) (*Agent, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoCommand
	}
	a := &Agent{command: argv[0], args: argv[1:]}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Invoke runs the program once. A non-zero exit is an error carrying the
// program's stderr. Cancelling ctx kills the program.
func (a *Agent) Invoke(ctx context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
	cmd := exec.CommandContext(ctx, a.command, a.args...)
	cmd.Dir = a.dir
	cmd.Stdin = strings.NewReader(call.Input)

	env, err := a.environ(call)
	if err != nil {
		return domain.ExecutionRecord{}, err
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ExecutionRecord{}, ctxErr
		}
		return domain.ExecutionRecord{}, fmt.Errorf("%s: %w: %s", a.command, err, strings.TrimSpace(stderr.String()))
	}

	return domain.ExecutionRecord{
		Input:  call.Input,
		Output: strings.TrimSpace(stdout.String()),
		Metadata: map[string]any{
			"command": a.command,
		},
	}, nil
}

func (a *Agent) environ(call domain.AgentCall) ([]string, error) {
	env := make([]string, 0, len(a.env)+3)
	for k, v := range a.env {
		env = append(env, k+"="+v)
	}
	history := call.History
	if history == nil {
		history = []domain.Message{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return append(env,
		EnvSessionID+"="+call.SessionID,
		EnvChatID+"="+call.ChatID,
		EnvHistory+"="+string(data),
	), nil
}

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/internal/runtime"
	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/aretw0/relay/pkg/session"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the relay library.
// It owns the agent configuration, the chat memory and the executor, and
// answers requests through Invoke.
type Engine struct {
	supervisor   *chain.Descriptor
	agents       []*chain.Descriptor
	byID         map[string]*chain.Descriptor
	compiled     *graph.CompiledGraph
	runtime      *runtime.Engine
	sessions     *session.Manager
	memory       ports.ChatMemory
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxHops      int
	debug        bool
	historyLimit int
	now          func() time.Time
	Name         string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithMemory sets the chat memory. Defaults to an in-memory store.
func WithMemory(m ports.ChatMemory) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithLocker serializes turns of a session across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockTTL sets how long a distributed session lock outlives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxHops sets the hop ceiling of each run.
func WithMaxHops(n int) Option {
	return func(e *Engine) {
		e.maxHops = n
	}
}

// WithDebug logs the input and output of every node at debug level.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithHistoryLimit caps the prior messages sent to agents.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// WithName labels the engine in logs and adapters.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an Engine. The agent graph is compiled once up front so
// configuration errors are reported before any request is served.
func New(supervisor *chain.Descriptor, agents []*chain.Descriptor, opts ...Option) (*Engine, error) {
	eng := &Engine{
		supervisor: supervisor,
		agents:     agents,
		logger:     logging.NewNop(),
		now:        time.Now,
		Name:       "relay",
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.memory == nil {
		eng.memory = memory.NewStore()
	}

	compiled, err := chain.Build(supervisor, agents)
	if err != nil {
		return nil, fmt.Errorf("invalid agent graph: %w", err)
	}
	eng.compiled = compiled

	eng.byID = make(map[string]*chain.Descriptor)
	for _, d := range chain.Flatten(agents) {
		eng.byID[d.ID] = d
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithMaxHops(eng.maxHops),
		runtime.WithDebug(eng.debug),
	)

	sessOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithHistoryLimit(eng.historyLimit),
	}
	if eng.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		sessOpts = append(sessOpts, session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.memory, sessOpts...)

	return eng, nil
}

// Invoke answers one request.
//
// The session's prior messages are loaded, a fresh graph is compiled for the
// request and executed from the supervisor. When the run succeeds the user
// input and the final output are appended to the session's memory; a failed
// run persists nothing. An empty SessionID falls back to ChatID, then to a
// new random id, which the response reports.
func (e *Engine) Invoke(ctx context.Context, req domain.Request) (*domain.Response, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.ChatID
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var resp *domain.Response
	err := e.sessions.Turn(ctx, sessionID, func(ctx context.Context, history []domain.Message) ([]domain.Message, error) {
		g, err := chain.Build(e.supervisor, e.agents,
			chain.WithSession(sessionID, req.ChatID),
			chain.WithHistory(history),
		)
		if err != nil {
			return nil, fmt.Errorf("invalid agent graph: %w", err)
		}

		res, err := e.runtime.Execute(ctx, g, req.Input)
		if err != nil {
			return nil, err
		}

		resp = &domain.Response{
			Output:     res.Final.Output,
			RunID:      res.RunID,
			SessionID:  sessionID,
			UsedAgents: e.usedAgents(res.Path),
			Records:    res.Records,
		}
		now := e.now()
		return []domain.Message{
			{Role: domain.RoleUser, Content: req.Input, CreatedAt: now},
			{Role: domain.RoleAssistant, Content: res.Final.Output, CreatedAt: now},
		}, nil
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "invoke failed", "engine", e.Name, "session_id", sessionID, "error", err)
		return nil, err
	}
	return resp, nil
}

// usedAgents lists the agents on path, first occurrence only, without the supervisor.
func (e *Engine) usedAgents(path []string) []domain.UsedAgent {
	var used []domain.UsedAgent
	seen := make(map[string]bool)
	for _, id := range path {
		if id == e.supervisor.ID || seen[id] {
			continue
		}
		seen[id] = true
		ua := domain.UsedAgent{NodeID: id}
		if d, ok := e.byID[id]; ok {
			ua.NodeFunction = d.Description
		}
		used = append(used, ua)
	}
	return used
}

// Graph returns the compiled agent graph, for inspection.
func (e *Engine) Graph() *graph.CompiledGraph {
	return e.compiled
}

// Agents returns every configured agent, chained ones included.
func (e *Engine) Agents() []*chain.Descriptor {
	return chain.Flatten(e.agents)
}

// Supervisor returns the supervisor descriptor.
func (e *Engine) Supervisor() *chain.Descriptor {
	return e.supervisor
}

// Sessions exposes the session manager, e.g. to list or clear histories.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

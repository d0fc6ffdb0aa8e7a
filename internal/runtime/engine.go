package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/google/uuid"
)

// DefaultMaxHops bounds the number of node invocations of a single run.
const DefaultMaxHops = 25

// Engine executes compiled graphs. It holds no per-run state and can run
// many graphs concurrently.
type Engine struct {
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	maxHops int
	debug   bool
	runID   func() string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxHops sets the hop ceiling. Values below 1 keep the default.
func WithMaxHops(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxHops = n
		}
	}
}

// WithDebug adds record input and output to the debug-level "node completed"
// log line. Without it only the node id and hop are logged.
func WithDebug(debug bool) EngineOption {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithRunIDGenerator overrides how run ids are minted.
func WithRunIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.runID = fn
		}
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:  logging.NewNop(),
		maxHops: DefaultMaxHops,
		runID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxHops returns the configured hop ceiling.
func (e *Engine) MaxHops() int { return e.maxHops }

// Result is the outcome of a completed run.
type Result struct {
	RunID string
	// Final is the last record appended before the run reached domain.End.
	Final   domain.ExecutionRecord
	Records []domain.ExecutionRecord
	// Path lists the invoked nodes in order.
	Path []string
	Hops int
}

// Execute runs g from its entry point until a node routes to domain.End.
//
// The input seeds record 0. Each hop invokes the current node, appends its
// record and resolves the next node. Cancellation of ctx is observed between
// hops. On any failure the partial records are discarded and only the error
// is returned.
func (e *Engine) Execute(ctx context.Context, g *graph.CompiledGraph, input string) (*Result, error) {
	r := &run{
		engine: e,
		id:     e.runID(),
		graph:  g,
		acc:    domain.NewAccumulator(input),
		start:  time.Now(),
	}
	log := e.logger.With("run_id", r.id)
	log.DebugContext(ctx, "run started", "entry", g.EntryPoint())
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: r.event(domain.EventRunStart),
			Entry:     g.EntryPoint(),
		})
	}

	err := r.loop(ctx, log)

	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(ctx, &domain.RunEvent{
			EventBase: r.event(domain.EventRunEnd),
			Entry:     g.EntryPoint(),
			Hops:      len(r.path),
			Duration:  time.Since(r.start),
			Err:       err,
		})
	}
	if err != nil {
		log.WarnContext(ctx, "run failed", "hops", len(r.path), "error", err)
		return nil, err
	}

	log.DebugContext(ctx, "run finished", "hops", len(r.path), "duration", time.Since(r.start))
	return &Result{
		RunID:   r.id,
		Final:   r.acc.Latest(),
		Records: r.acc.Records(),
		Path:    r.path,
		Hops:    len(r.path),
	}, nil
}

type run struct {
	engine *Engine
	id     string
	graph  *graph.CompiledGraph
	acc    *domain.StateAccumulator
	path   []string
	start  time.Time
}

func (r *run) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: r.id}
}

func (r *run) loop(ctx context.Context, log *slog.Logger) error {
	e := r.engine
	current := r.graph.EntryPoint()

	for current != domain.End {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled before %q: %w", current, err)
		}
		if len(r.path) >= e.maxHops {
			return &domain.CycleExceededError{Limit: e.maxHops, Path: append(r.path, current)}
		}

		node, ok := r.graph.Node(current)
		if !ok {
			return &domain.UnknownNodeError{ID: current, Referrer: "executor"}
		}
		r.path = append(r.path, current)

		rec, err := r.invoke(ctx, current, node)
		if err != nil {
			return &domain.ExecutionError{NodeID: current, Cause: err}
		}
		r.logRecord(ctx, log, rec)

		next, err := resolveNext(r.graph, current, r.acc)
		if err != nil {
			return err
		}
		if e.hooks.OnRoute != nil {
			e.hooks.OnRoute(ctx, &domain.RouteEvent{
				EventBase:   r.event(domain.EventRoute),
				From:        current,
				To:          next,
				Conditional: r.graph.IsConditional(current),
			})
		}
		current = next
	}
	return nil
}

func (r *run) invoke(ctx context.Context, id string, node graph.Node) (domain.ExecutionRecord, error) {
	hooks := r.engine.hooks
	hop := len(r.path)
	if hooks.OnNodeEnter != nil {
		hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: r.event(domain.EventNodeEnter), NodeID: id, Hop: hop})
	}

	began := time.Now()
	rec, err := node.Invoke(ctx, r.acc)
	if err == nil {
		rec.NodeID = id
		r.acc.Append(rec)
	}

	if hooks.OnNodeLeave != nil {
		ev := &domain.NodeEvent{
			EventBase: r.event(domain.EventNodeLeave),
			NodeID:    id,
			Hop:       hop,
			Duration:  time.Since(began),
			Err:       err,
		}
		if err == nil {
			latest := r.acc.Latest()
			ev.Record = &latest
		}
		hooks.OnNodeLeave(ctx, ev)
	}
	return rec, err
}

func (r *run) logRecord(ctx context.Context, log *slog.Logger, rec domain.ExecutionRecord) {
	if r.engine.debug {
		log.DebugContext(ctx, "node completed", "node_id", rec.NodeID, "hop", len(r.path),
			"input", rec.Input, "output", rec.Output)
		return
	}
	log.DebugContext(ctx, "node completed", "node_id", rec.NodeID, "hop", len(r.path))
}

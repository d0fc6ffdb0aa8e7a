package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/adapters/file"
	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/adapters/llm"
	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/adapters/process"
	redisadapter "github.com/aretw0/relay/pkg/adapters/redis"
	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/config"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/observability"
	"github.com/aretw0/relay/pkg/persistence/middleware"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultTokenEnv holds the API key when a model sets no token_env.
const DefaultTokenEnv = "OPENAI_API_KEY"

// localToken is sent to OpenAI-compatible servers that ignore the key.
const localToken = "local"

// EngineOptions controls how the CLI assembles an engine.
type EngineOptions struct {
	Logger *slog.Logger
	Debug  bool
	// Registerer receives the engine metrics. Nil disables metrics.
	Registerer prometheus.Registerer
	// Factory overrides the model-backed agent factory.
	Factory config.Factory
}

// Stack is an assembled engine with the resources it holds.
type Stack struct {
	Engine  *relay.Engine
	Memory  ports.ChatMemory
	Metrics *observability.Metrics
	closers []func() error
}

// Close releases backend connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewStack builds the engine described by f.
func NewStack(f *config.File, opts EngineOptions) (*Stack, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	factory := opts.Factory
	if factory == nil {
		factory = NewLLMFactory()
	}

	supervisor, agents, err := f.Descriptors(commandFactory{factory})
	if err != nil {
		return nil, err
	}

	mem, err := NewMemory(f.Memory)
	if err != nil {
		return nil, err
	}
	stack := &Stack{Memory: mem.Store}
	stack.closers = append(stack.closers, mem.Close)

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(logger)}
	if opts.Registerer != nil {
		m, err := observability.NewMetrics(opts.Registerer)
		if err != nil {
			_ = stack.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		stack.Metrics = m
		hooks = append(hooks, m.Hooks())
	}

	engineOpts := []relay.Option{
		relay.WithLogger(logger),
		relay.WithMemory(mem.Store),
		relay.WithLifecycleHooks(domain.CombineHooks(hooks...)),
		relay.WithMaxHops(f.Runtime.MaxHops),
		relay.WithDebug(opts.Debug || f.Runtime.Debug),
		relay.WithHistoryLimit(f.Runtime.HistoryLimit),
	}
	if f.Name != "" {
		engineOpts = append(engineOpts, relay.WithName(f.Name))
	}
	if mem.Locker != nil {
		engineOpts = append(engineOpts, relay.WithLocker(mem.Locker))
	}
	if f.Runtime.LockTTL > 0 {
		engineOpts = append(engineOpts, relay.WithLockTTL(f.Runtime.LockTTL))
	}

	eng, err := relay.New(supervisor, agents, engineOpts...)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	stack.Engine = eng
	return stack, nil
}

// Memory is a configured chat memory backend.
type Memory struct {
	Store   ports.ChatMemory
	Locker  ports.DistributedLocker
	closers []func() error
}

// NewMemory opens the configured backend and wraps it with the PII and
// encryption middleware. PII masking runs before encryption on writes.
func NewMemory(cfg config.Memory) (*Memory, error) {
	m := &Memory{}
	switch cfg.Backend {
	case config.BackendFile:
		m.Store = file.New(cfg.Dir)
	case config.BackendRedis:
		var opts []redisadapter.Option
		if cfg.TTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.TTL))
		}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redisadapter.WithPrefix(cfg.Redis.Prefix))
		}
		store := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		m.Store = store
		m.Locker = redisadapter.NewLocker(store.Client(), lockPrefix(cfg.Redis.Prefix))
		m.closers = append(m.closers, store.Close)
	default:
		m.Store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if patterns := cfg.Patterns(); len(patterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	keys, ok, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if ok {
		enc, err := middleware.NewEncryptionMiddleware(keys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	m.Store = middleware.Wrap(m.Store, mws...)
	return m, nil
}

// Close releases the backend connection, if any.
func (m *Memory) Close() error {
	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func lockPrefix(prefix string) string {
	if prefix == "" {
		prefix = redisadapter.DefaultPrefix
	}
	return prefix + "lock:"
}

// LLMFactory builds agents backed by OpenAI-compatible chat models.
// Agents that share endpoint, model and key share one client.
type LLMFactory struct {
	mu     sync.Mutex
	models map[modelKey]*openai.LLM
}

type modelKey struct {
	baseURL, name, tokenEnv string
}

// NewLLMFactory creates an LLMFactory.
func NewLLMFactory() *LLMFactory {
	return &LLMFactory{models: make(map[modelKey]*openai.LLM)}
}

func (f *LLMFactory) model(cfg config.Model) (*openai.LLM, error) {
	if cfg.Provider != "" && cfg.Provider != "openai" {
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
	tokenEnv := cfg.TokenEnv
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}

	key := modelKey{cfg.BaseURL, cfg.Name, tokenEnv}
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.models[key]; ok {
		return m, nil
	}

	token := os.Getenv(tokenEnv)
	if token == "" {
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%s is not set", tokenEnv)
		}
		token = localToken
	}
	opts := []openai.Option{openai.WithToken(token)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Name != "" {
		opts = append(opts, openai.WithModel(cfg.Name))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}
	f.models[key] = m
	return m, nil
}

func agentOptions(model config.Model) []llm.Option {
	opts := []llm.Option{llm.WithModelName(model.Name)}
	if model.Temperature != 0 {
		opts = append(opts, llm.WithTemperature(model.Temperature))
	}
	if model.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(model.MaxTokens))
	}
	return opts
}

// Agent implements config.Factory.
func (f *LLMFactory) Agent(cfg config.Agent, model config.Model) (ports.Agent, error) {
	m, err := f.model(model)
	if err != nil {
		return nil, err
	}
	opts := agentOptions(model)
	if cfg.SystemPrompt != "" {
		opts = append(opts, llm.WithSystemPrompt(cfg.SystemPrompt))
	}
	return llm.New(m, opts...), nil
}

// Supervisor implements config.Factory.
func (f *LLMFactory) Supervisor(cfg config.Supervisor, model config.Model, routable []*chain.Descriptor) (ports.Agent, error) {
	m, err := f.model(model)
	if err != nil {
		return nil, err
	}
	return llm.NewSupervisor(m, cfg.Persona, routable, agentOptions(model)...)
}

// commandFactory runs agents that set a command as local programs and
// leaves the others to the wrapped factory.
type commandFactory struct {
	config.Factory
}

func (f commandFactory) Agent(cfg config.Agent, model config.Model) (ports.Agent, error) {
	if len(cfg.Command) == 0 {
		return f.Factory.Agent(cfg, model)
	}
	a, err := process.New(cfg.Command, process.WithEnv(cfg.Env))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ErrOffline is returned by agents built with OfflineFactory.
var ErrOffline = errors.New("agent is offline")

// OfflineFactory builds agents that never reach a model. It lets the CLI
// inspect and validate a flow without credentials.
type OfflineFactory struct {
	// Prompt holds the rendered supervisor prompt.
	Prompt string
}

// Agent implements config.Factory.
func (o *OfflineFactory) Agent(cfg config.Agent, _ config.Model) (ports.Agent, error) {
	return offlineAgent(cfg.ID), nil
}

// Supervisor implements config.Factory. The prompt is rendered so template
// errors surface during validation.
func (o *OfflineFactory) Supervisor(cfg config.Supervisor, _ config.Model, routable []*chain.Descriptor) (ports.Agent, error) {
	prompt, err := llm.SupervisorPrompt(cfg.Persona, routable)
	if err != nil {
		return nil, err
	}
	o.Prompt = prompt
	return offlineAgent(cfg.ID), nil
}

func offlineAgent(id string) ports.Agent {
	return ports.AgentFunc(func(_ context.Context, _ domain.AgentCall) (domain.ExecutionRecord, error) {
		return domain.ExecutionRecord{}, fmt.Errorf("%s: %w", id, ErrOffline)
	})
}

// Package config loads relay flow files.
//
// A flow file declares the supervisor, the agents it routes to, the model
// they talk to and where chat history is kept. YAML and JSON are accepted.
// ${VAR} references are expanded from the environment before parsing.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/persistence/middleware"
)

// Memory backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// DefaultDir is where the file backend keeps sessions unless configured.
const DefaultDir = ".relay/sessions"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// File is the decoded flow file.
type File struct {
	Name       string     `mapstructure:"name"`
	Supervisor Supervisor `mapstructure:"supervisor"`
	Agents     []Agent    `mapstructure:"agents"`
	Model      Model      `mapstructure:"model"`
	Runtime    Runtime    `mapstructure:"runtime"`
	Memory     Memory     `mapstructure:"memory"`
}

// Supervisor configures the routing agent.
type Supervisor struct {
	ID      string `mapstructure:"id"`
	Persona string `mapstructure:"persona"`
	Model   *Model `mapstructure:"model"`
}

// Agent configures one worker agent.
type Agent struct {
	ID           string `mapstructure:"id"`
	Description  string `mapstructure:"description"`
	SystemPrompt string `mapstructure:"system_prompt"`
	Model        *Model `mapstructure:"model"`
	// Next names the agent that runs after this one.
	Next string `mapstructure:"next"`
	// Routable controls whether the supervisor may name this agent. When
	// unset, agents that appear as another agent's Next are not routable.
	Routable *bool `mapstructure:"routable"`
	// Command runs a local program instead of a model. The first element
	// is the executable, the rest its arguments.
	Command []string          `mapstructure:"command"`
	Env     map[string]string `mapstructure:"env"`
}

// Model selects an OpenAI-compatible chat model.
type Model struct {
	Provider    string  `mapstructure:"provider"`
	BaseURL     string  `mapstructure:"base_url"`
	Name        string  `mapstructure:"name"`
	TokenEnv    string  `mapstructure:"token_env"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Merge returns m with the non-zero fields of o applied on top.
func (m Model) Merge(o *Model) Model {
	if o == nil {
		return m
	}
	if o.Provider != "" {
		m.Provider = o.Provider
	}
	if o.BaseURL != "" {
		m.BaseURL = o.BaseURL
	}
	if o.Name != "" {
		m.Name = o.Name
	}
	if o.TokenEnv != "" {
		m.TokenEnv = o.TokenEnv
	}
	if o.Temperature != 0 {
		m.Temperature = o.Temperature
	}
	if o.MaxTokens != 0 {
		m.MaxTokens = o.MaxTokens
	}
	return m
}

// Runtime tunes execution.
type Runtime struct {
	MaxHops      int           `mapstructure:"max_hops"`
	Debug        bool          `mapstructure:"debug"`
	HistoryLimit int           `mapstructure:"history_limit"`
	MaxInputSize int           `mapstructure:"max_input_size"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
}

// Memory selects the chat history backend and its middleware.
type Memory struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	Redis   Redis         `mapstructure:"redis"`
	TTL     time.Duration `mapstructure:"ttl"`
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// PIIPatterns are regular expressions, or the names "email" and "phone".
	PIIPatterns []string `mapstructure:"pii_patterns"`
}

// Redis holds connection settings for the redis backend.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Keys decodes the encryption keys. ok is false when encryption is disabled.
func (m Memory) Keys() (cfg middleware.EncryptionConfig, ok bool, err error) {
	if m.EncryptionKey == "" {
		return cfg, false, nil
	}
	if cfg.ActiveKey, err = decodeKey(m.EncryptionKey); err != nil {
		return cfg, false, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range m.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return cfg, false, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, true, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Patterns resolves PII pattern names to expressions.
func (m Memory) Patterns() []string {
	out := make([]string, 0, len(m.PIIPatterns))
	for _, p := range m.PIIPatterns {
		switch p {
		case "email":
			out = append(out, middleware.PatternEmail)
		case "phone":
			out = append(out, middleware.PatternPhone)
		default:
			out = append(out, p)
		}
	}
	return out
}

func (f *File) applyDefaults() {
	if f.Supervisor.ID == "" {
		f.Supervisor.ID = chain.DefaultSupervisorID
	}
	if f.Model.Provider == "" {
		f.Model.Provider = "openai"
	}
	if f.Memory.Backend == "" {
		f.Memory.Backend = BackendMemory
	}
	if f.Memory.Backend == BackendFile && f.Memory.Dir == "" {
		f.Memory.Dir = DefaultDir
	}
}

// Validate reports every problem found in f, joined.
func (f *File) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if reserved(f.Supervisor.ID) {
		fail("supervisor id %q is reserved", f.Supervisor.ID)
	}
	if len(f.Agents) == 0 {
		fail("at least one agent is required")
	}

	ids := map[string]bool{f.Supervisor.ID: true}
	for i, a := range f.Agents {
		switch {
		case a.ID == "":
			fail("agents[%d]: id is required", i)
		case reserved(a.ID):
			fail("agents[%d]: id %q is reserved", i, a.ID)
		case ids[a.ID]:
			fail("agents[%d]: duplicate id %q", i, a.ID)
		}
		if len(a.Command) > 0 && a.SystemPrompt != "" {
			fail("agent %q: command and system_prompt are exclusive", a.ID)
		}
		ids[a.ID] = true
	}
	for _, a := range f.Agents {
		if a.Next != "" && (!ids[a.Next] || a.Next == f.Supervisor.ID) {
			fail("agent %q: next %q is not a configured agent", a.ID, a.Next)
		}
	}

	if f.Runtime.MaxHops < 0 {
		fail("runtime.max_hops must not be negative")
	}
	if f.Runtime.HistoryLimit < 0 {
		fail("runtime.history_limit must not be negative")
	}

	switch f.Memory.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if f.Memory.Redis.Addr == "" {
			fail("memory.redis.addr is required for the redis backend")
		}
	default:
		fail("unknown memory backend %q", f.Memory.Backend)
	}
	if _, _, err := f.Memory.Keys(); err != nil {
		fail("memory.%v", err)
	}

	return errors.Join(errs...)
}

func reserved(id string) bool {
	return id == domain.End || id == domain.StartNodeID
}

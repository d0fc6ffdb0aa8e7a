package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// Model is the part of llms.Model an agent needs.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Agent answers node invocations with a chat model.
type Agent struct {
	model        Model
	modelName    string
	systemPrompt string
	withHistory  bool
	callOptions  []llms.CallOption
}

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt sets the system message sent before the conversation.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.callOptions = append(a.callOptions, llms.WithTemperature(t)) }
}

// WithMaxTokens caps the length of each answer.
func WithMaxTokens(n int) Option {
	return func(a *Agent) { a.callOptions = append(a.callOptions, llms.WithMaxTokens(n)) }
}

// WithModelName records the model name in record metadata.
func WithModelName(name string) Option {
	return func(a *Agent) { a.modelName = name }
}

// WithHistory controls whether the session history is sent. Default true.
func WithHistory(enabled bool) Option {
	return func(a *Agent) { a.withHistory = enabled }
}

// New creates an agent over model.
func New(model Model, opts ...Option) *Agent {
	a := &Agent{model: model, withHistory: true}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SystemPrompt returns the configured system prompt.
func (a *Agent) SystemPrompt() string { return a.systemPrompt }

// Invoke sends system prompt, history and input to the model and records
// the first choice.
func (a *Agent) Invoke(ctx context.Context, call domain.AgentCall) (domain.ExecutionRecord, error) {
	resp, err := a.model.GenerateContent(ctx, a.messages(call), a.callOptions...)
	if err != nil {
		return domain.ExecutionRecord{}, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return domain.ExecutionRecord{}, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	md := map[string]any{}
	if choice.StopReason != "" {
		md[domain.KeyStopReason] = choice.StopReason
	}
	if a.modelName != "" {
		md[domain.KeyModel] = a.modelName
	}
	return domain.ExecutionRecord{
		Input:    call.Input,
		Output:   choice.Content,
		Metadata: md,
	}, nil
}

func (a *Agent) messages(call domain.AgentCall) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(call.History)+2)
	if a.systemPrompt != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, a.systemPrompt))
	}
	if a.withHistory {
		for _, m := range call.History {
			msgs = append(msgs, llms.TextParts(messageType(m.Role), m.Content))
		}
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, call.Input))
}

func messageType(r domain.Role) llms.ChatMessageType {
	switch r {
	case domain.RoleAssistant:
		return llms.ChatMessageTypeAI
	case domain.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}

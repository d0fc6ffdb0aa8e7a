package domain

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of a session's chat history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// AgentCall is what an agent receives when its node is invoked.
type AgentCall struct {
	Input     string
	SessionID string
	ChatID    string
	// History holds the session's prior messages, oldest first.
	History []Message
}

// Request is the inbound side of the invocation boundary.
type Request struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id"`
	ChatID    string `json:"chat_id,omitempty"`
}

// UsedAgent names an agent that took part in answering a request.
type UsedAgent struct {
	NodeID       string `json:"node_id"`
	NodeFunction string `json:"node_function"`
}

// Response is the outbound side of the invocation boundary.
type Response struct {
	Output     string            `json:"output"`
	RunID      string            `json:"run_id"`
	SessionID  string            `json:"session_id"`
	UsedAgents []UsedAgent       `json:"used_agents,omitempty"`
	Records    []ExecutionRecord `json:"-"`
}

// Package mcp exposes a relay engine as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/input"
	pgraph "github.com/aretw0/relay/internal/presentation/graph"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the graph topology.
const GraphURI = "relay://graph"

// Engine is the part of relay.Engine the MCP server needs.
type Engine interface {
	Invoke(ctx context.Context, req domain.Request) (*domain.Response, error)
	Graph() *graph.CompiledGraph
}

// AskArgs are the arguments of the ask tool.
type AskArgs struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResult is the structured result of the ask tool.
type AskResult struct {
	Output     string             `json:"output" jsonschema_description:"The final answer"`
	SessionID  string             `json:"session_id" jsonschema_description:"Session the turn was recorded in"`
	RunID      string             `json:"run_id"`
	UsedAgents []domain.UsedAgent `json:"used_agents,omitempty" jsonschema_description:"Agents that took part, in order"`
}

// Server wraps the engine as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("relay-mcp", strings.TrimSpace(relay.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask the supervisor a question. The supervisor answers or delegates to one of its agents."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The user message")),
		mcp.WithString("session_id", mcp.Description("Conversation to continue (optional)")),
		mcp.WithOutputSchema[AskResult](),
	), mcp.NewStructuredToolHandler(s.handleAsk))

	s.mcpServer.AddTool(mcp.NewTool("describe_graph",
		mcp.WithDescription("Describe the agent graph as JSON, or as a Mermaid flowchart."),
		mcp.WithString("format", mcp.Enum("json", "mermaid"), mcp.Description("Output format (default json)")),
	), s.handleDescribeGraph)
}

func (s *Server) handleAsk(ctx context.Context, _ mcp.CallToolRequest, args AskArgs) (AskResult, error) {
	clean, err := input.Sanitize(args.Input, 0)
	if err != nil {
		return AskResult{}, fmt.Errorf("invalid input: %w", err)
	}
	resp, err := s.engine.Invoke(ctx, domain.Request{Input: clean, SessionID: args.SessionID})
	if err != nil {
		return AskResult{}, fmt.Errorf("ask failed: %w", err)
	}
	return AskResult{
		Output:     resp.Output,
		SessionID:  resp.SessionID,
		RunID:      resp.RunID,
		UsedAgents: resp.UsedAgents,
	}, nil
}

func (s *Server) handleDescribeGraph(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topo := s.engine.Graph().Topology()
	if req.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(pgraph.GenerateMermaid(topo, nil)), nil
	}
	data, err := json.Marshal(topo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode graph: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Agent Graph",
		mcp.WithResourceDescription("Entry point, nodes and edges of the compiled agent graph"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Graph().Topology())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

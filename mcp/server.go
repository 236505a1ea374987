package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	ai "github.com/coleremick/relay"
	"github.com/coleremick/relay/tool"
)

// DefaultCaller is the caller identity MCP clients execute under unless
// WithCaller overrides it.
const DefaultCaller = "mcp"

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	caller  string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithCaller sets the caller identity MCP clients execute tools under.
// Only tools visible to this caller are exposed, and every call is access
// checked against it.
func WithCaller(callerID string) ServerOption {
	return func(c *serverConfig) {
		c.caller = callerID
	}
}

// NewServer creates an MCP server that exposes tools from a relay
// tool.Registry. Only tools visible to the configured caller are exposed,
// and calls run through the registry's full pipeline: access control,
// argument validation, timeout, and panic containment.
//
// Example:
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("weather", "Get weather", weatherHandler),
//	    tool.Func("search", "Search web", searchHandler),
//	)
//
//	mcpServer := mcp.NewServer(registry,
//	    mcp.WithName("my-tools"),
//	    mcp.WithVersion("1.0.0"),
//	)
//
//	server.ServeStdio(mcpServer)
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "relay-mcp-server",
		version: "1.0.0",
		caller:  DefaultCaller,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	for _, t := range registry.Visible(cfg.caller) {
		s.AddTool(ToMCPTool(t), createMCPHandler(registry, cfg.caller, t.Name))
	}

	return s
}

// createMCPHandler routes an MCP tool call through Registry.Execute under
// the configured caller identity.
func createMCPHandler(registry *tool.Registry, callerID, toolName string) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsJSON := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to marshal arguments: %v", err)), nil
			}
			argsJSON = string(data)
		}

		call := ai.ToolCall{
			// MCP requests carry no call IDs; mint one so the record is traceable.
			ID:        "mcp-" + uuid.NewString(),
			Name:      toolName,
			Arguments: argsJSON,
		}

		result, _, err := registry.Execute(ctx, callerID, call)
		if err != nil && result.Content == "" {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return ToMCPCallToolResult(result), nil
	}
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
//
// Example:
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("hello", "Say hello", helloHandler),
//	)
//
//	if err := mcp.ServeStdio(registry); err != nil {
//	    log.Fatal(err)
//	}
func ServeStdio(registry *tool.Registry, opts ...ServerOption) error {
	s := NewServer(registry, opts...)
	return server.ServeStdio(s)
}

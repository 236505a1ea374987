package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/coleremick/relay"
	"github.com/coleremick/relay/tool"
)

func TestToMCPTool(t *testing.T) {
	t.Run("converts relay tool to MCP tool", func(t *testing.T) {
		schema := json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}}}`)
		relayTool := ai.Tool{
			Name:        "greet",
			Description: "Greet someone",
			Parameters:  schema,
		}

		mcpTool := ToMCPTool(relayTool)

		assert.Equal(t, "greet", mcpTool.Name)
		assert.Equal(t, "Greet someone", mcpTool.Description)
		assert.Equal(t, schema, mcpTool.RawInputSchema)
	})

	t.Run("handles nil parameters", func(t *testing.T) {
		relayTool := ai.Tool{
			Name:        "simple",
			Description: "Simple tool",
			Parameters:  nil,
		}

		mcpTool := ToMCPTool(relayTool)

		assert.Equal(t, "simple", mcpTool.Name)
		assert.Equal(t, "Simple tool", mcpTool.Description)
	})
}

func TestFromMCPTool(t *testing.T) {
	t.Run("converts MCP tool with raw schema", func(t *testing.T) {
		schema := json.RawMessage(`{"type":"object"}`)
		mcpTool := mcp.NewToolWithRawSchema("weather", "Get weather", schema)

		relayTool := FromMCPTool(mcpTool)

		assert.Equal(t, "weather", relayTool.Name)
		assert.Equal(t, "Get weather", relayTool.Description)
		assert.JSONEq(t, `{"type":"object"}`, string(relayTool.Parameters))
	})

	t.Run("converts MCP tool with structured schema", func(t *testing.T) {
		mcpTool := mcp.NewTool("search",
			mcp.WithDescription("Search the web"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		)

		relayTool := FromMCPTool(mcpTool)

		assert.Equal(t, "search", relayTool.Name)
		assert.Equal(t, "Search the web", relayTool.Description)
		assert.NotNil(t, relayTool.Parameters)
	})
}

func TestFromMCPTools(t *testing.T) {
	mcpTools := []mcp.Tool{
		mcp.NewTool("a", mcp.WithDescription("Tool A")),
		mcp.NewTool("b", mcp.WithDescription("Tool B")),
	}

	relayTools := FromMCPTools(mcpTools)

	assert.Len(t, relayTools, 2)
	assert.Equal(t, "a", relayTools[0].Name)
	assert.Equal(t, "b", relayTools[1].Name)
}

func TestToMCPCallToolRequest(t *testing.T) {
	t.Run("converts relay tool call to MCP request", func(t *testing.T) {
		call := ai.ToolCall{
			ID:        "call_123",
			Name:      "calculate",
			Arguments: `{"a": 10, "b": 5}`,
		}

		req := ToMCPCallToolRequest(call)

		assert.Equal(t, "calculate", req.Params.Name)
		args, ok := req.Params.Arguments.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(10), args["a"])
		assert.Equal(t, float64(5), args["b"])
	})

	t.Run("handles empty arguments", func(t *testing.T) {
		call := ai.ToolCall{
			ID:        "call_456",
			Name:      "noargs",
			Arguments: "",
		}

		req := ToMCPCallToolRequest(call)

		assert.Equal(t, "noargs", req.Params.Name)
		assert.Nil(t, req.Params.Arguments)
	})
}

func TestFromMCPCallToolResult(t *testing.T) {
	t.Run("converts text result", func(t *testing.T) {
		mcpResult := mcp.NewToolResultText("Hello, World!")

		result := FromMCPCallToolResult("call_123", mcpResult)

		assert.Equal(t, "call_123", result.ToolCallID)
		assert.Equal(t, "Hello, World!", result.Content)
		assert.False(t, result.IsError)
	})

	t.Run("converts error result", func(t *testing.T) {
		mcpResult := mcp.NewToolResultError("something went wrong")

		result := FromMCPCallToolResult("call_456", mcpResult)

		assert.Equal(t, "call_456", result.ToolCallID)
		assert.Equal(t, "something went wrong", result.Content)
		assert.True(t, result.IsError)
	})

	t.Run("handles nil result", func(t *testing.T) {
		result := FromMCPCallToolResult("call_789", nil)

		assert.Equal(t, "call_789", result.ToolCallID)
		assert.Equal(t, "", result.Content)
		assert.True(t, result.IsError)
	})
}

func TestToMCPCallToolResult(t *testing.T) {
	t.Run("converts success result", func(t *testing.T) {
		mcpResult := ToMCPCallToolResult(ai.ToolResult{
			ToolCallID: "call_123",
			Content:    "Success!",
		})

		assert.False(t, mcpResult.IsError)
		require.Len(t, mcpResult.Content, 1)
	})

	t.Run("converts error result", func(t *testing.T) {
		mcpResult := ToMCPCallToolResult(ai.ToolResult{
			ToolCallID: "call_456",
			Content:    "Error message",
			IsError:    true,
		})

		assert.True(t, mcpResult.IsError)
	})
}

// startClient creates, starts, and initializes an in-process client for the
// given server, registering cleanup with the test.
func startClient(t *testing.T, s *server.MCPServer) *client.Client {
	t.Helper()

	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "test-client",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err)
	return c
}

// TestServerIntegration tests the server using an in-process MCP client.
func TestServerIntegration(t *testing.T) {
	t.Run("exposes tools from registry", func(t *testing.T) {
		registry := tool.NewRegistry().Add(
			tool.Func("echo", "Echo text", func(ctx context.Context, args struct {
				Text string `json:"text"`
			}) (string, error) {
				return args.Text, nil
			}),
			tool.Func("add", "Add numbers", func(ctx context.Context, args struct {
				A int `json:"a"`
				B int `json:"b"`
			}) (string, error) {
				data, err := json.Marshal(args.A + args.B)
				return string(data), err
			}),
		)

		s := NewServer(registry,
			WithName("test-server"),
			WithVersion("1.0.0"),
		)
		c := startClient(t, s)

		result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)
		require.Len(t, result.Tools, 2)

		names := make([]string, len(result.Tools))
		for i, tl := range result.Tools {
			names[i] = tl.Name
		}
		assert.Contains(t, names, "echo")
		assert.Contains(t, names, "add")
	})

	t.Run("hides tools the caller may not use", func(t *testing.T) {
		registry := tool.NewRegistry().Add(
			tool.Func("open", "Open to everyone", func(ctx context.Context, args struct{}) (string, error) {
				return "ok", nil
			}),
			tool.Func("restricted", "Agent only", func(ctx context.Context, args struct{}) (string, error) {
				return "ok", nil
			}, tool.ForCallers("agent")),
		)

		s := NewServer(registry)
		c := startClient(t, s)

		result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)
		require.Len(t, result.Tools, 1)
		assert.Equal(t, "open", result.Tools[0].Name)
	})

	t.Run("caller option widens the exposed set", func(t *testing.T) {
		registry := tool.NewRegistry().Add(
			tool.Func("open", "Open to everyone", func(ctx context.Context, args struct{}) (string, error) {
				return "ok", nil
			}),
			tool.Func("restricted", "Agent only", func(ctx context.Context, args struct{}) (string, error) {
				return "ok", nil
			}, tool.ForCallers("agent")),
		)

		s := NewServer(registry, WithCaller("agent"))
		c := startClient(t, s)

		result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)
		assert.Len(t, result.Tools, 2)
	})

	t.Run("calls tools and returns results", func(t *testing.T) {
		registry := tool.NewRegistry().Add(
			tool.Func("greet", "Greet someone", func(ctx context.Context, args struct {
				Name string `json:"name"`
			}) (string, error) {
				return "Hello, " + args.Name + "!", nil
			}),
		)

		s := NewServer(registry)
		c := startClient(t, s)

		result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "greet",
				Arguments: map[string]any{
					"name": "World",
				},
			},
		})
		require.NoError(t, err)

		assert.False(t, result.IsError)
		require.Len(t, result.Content, 1)
		textContent, ok := result.Content[0].(mcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "Hello, World!", textContent.Text)
	})

	t.Run("rejects arguments that fail the schema", func(t *testing.T) {
		registry := tool.NewRegistry().Add(
			tool.Func("greet", "Greet someone", func(ctx context.Context, args struct {
				Name string `json:"name"`
			}) (string, error) {
				return "Hello, " + args.Name + "!", nil
			}),
		)

		s := NewServer(registry)
		c := startClient(t, s)

		result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "greet",
				Arguments: map[string]any{
					"name": 42,
				},
			},
		})
		require.NoError(t, err)

		assert.True(t, result.IsError)
		require.Len(t, result.Content, 1)
		textContent, ok := result.Content[0].(mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, textContent.Text, "invalid arguments")
	})

	t.Run("handles tool errors gracefully", func(t *testing.T) {
		registry := tool.NewRegistry().Add(
			tool.Func("fail", "Always fails", func(ctx context.Context, args struct{}) (string, error) {
				return "", assert.AnError
			}),
		)

		s := NewServer(registry)
		c := startClient(t, s)

		result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "fail",
				Arguments: map[string]any{},
			},
		})
		require.NoError(t, err)

		assert.True(t, result.IsError)
	})
}

// TestRemoteRegistryIntegration tests RemoteRegistry against an in-process server.
func TestRemoteRegistryIntegration(t *testing.T) {
	newRemote := func(t *testing.T, source *tool.Registry) *RemoteRegistry {
		t.Helper()
		c, err := client.NewInProcessClient(NewServer(source))
		require.NoError(t, err)

		remote, err := NewRemoteRegistryFromClient(context.Background(), c)
		require.NoError(t, err)
		t.Cleanup(func() { remote.Close() })
		return remote
	}

	t.Run("lists tools from the server", func(t *testing.T) {
		source := tool.NewRegistry().Add(
			tool.Func("ping", "Ping pong", func(ctx context.Context, args struct{}) (string, error) {
				return "pong", nil
			}),
			tool.Func("echo", "Echo text", func(ctx context.Context, args struct {
				Text string `json:"text"`
			}) (string, error) {
				return args.Text, nil
			}),
		)
		remote := newRemote(t, source)

		assert.Equal(t, 2, remote.Len())
		assert.True(t, remote.Has("ping"))
		assert.True(t, remote.Has("echo"))

		pingTool, ok := remote.GetTool("ping")
		assert.True(t, ok)
		assert.Equal(t, "ping", pingTool.Name)
		assert.Equal(t, "Ping pong", pingTool.Description)
	})

	t.Run("executes remote tools", func(t *testing.T) {
		source := tool.NewRegistry().Add(
			tool.Func("add", "Add numbers", func(ctx context.Context, args struct {
				A int `json:"a"`
				B int `json:"b"`
			}) (string, error) {
				data, err := json.Marshal(args.A + args.B)
				return string(data), err
			}),
		)
		remote := newRemote(t, source)

		result, err := remote.Execute(context.Background(), ai.ToolCall{
			ID:        "call_123",
			Name:      "add",
			Arguments: `{"a": 10, "b": 5}`,
		})
		require.NoError(t, err)

		assert.Equal(t, "call_123", result.ToolCallID)
		assert.Equal(t, "15", result.Content)
		assert.False(t, result.IsError)
	})

	t.Run("refreshes tool list", func(t *testing.T) {
		source := tool.NewRegistry().Add(
			tool.Func("initial", "Initial tool", func(ctx context.Context, args struct{}) (string, error) {
				return "ok", nil
			}),
		)
		remote := newRemote(t, source)

		assert.Equal(t, 1, remote.Len())

		require.NoError(t, remote.Refresh(context.Background()))
		assert.Equal(t, 1, remote.Len())
	})

	t.Run("binds remote tools into a local registry", func(t *testing.T) {
		source := tool.NewRegistry().Add(
			tool.Func("shout", "Uppercase text", func(ctx context.Context, args struct {
				Text string `json:"text"`
			}) (string, error) {
				return args.Text + "!", nil
			}),
		)
		remote := newRemote(t, source)

		local := tool.NewRegistry()
		require.NoError(t, remote.Bind(local, tool.ForCallers("concierge"), tool.InCategory("remote")))

		require.Equal(t, 1, local.Len())
		bound, ok := local.Get("shout")
		require.True(t, ok)
		assert.Equal(t, []string{"concierge"}, bound.Callers)
		assert.Equal(t, "remote", bound.Category)

		result, rec, err := local.Execute(context.Background(), "concierge", ai.ToolCall{
			ID:        "call_1",
			Name:      "shout",
			Arguments: `{"text": "hey"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, "hey!", result.Content)
		assert.True(t, rec.OK())

		// ACL still applies to bound tools
		_, _, err = local.Execute(context.Background(), "stranger", ai.ToolCall{
			ID:        "call_2",
			Name:      "shout",
			Arguments: `{"text": "hey"}`,
		})
		assert.Error(t, err)
	})
}

// Command mcp is a reference MCP server that exposes relay tools over stdio.
//
// It demonstrates how to expose a tool.Registry as an MCP server, allowing
// MCP clients (like Claude Desktop or other AI assistants) to discover and
// use the tools.
//
// Usage:
//
//	go run ./cmd/mcp
//
// Configuration for Claude Desktop (~/Library/Application Support/Claude/claude_desktop_config.json):
//
//	{
//	    "mcpServers": {
//	        "relay-tools": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/relay"
//	        }
//	    }
//	}
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	ai "github.com/coleremick/relay"
	"github.com/coleremick/relay/mcp"
	"github.com/coleremick/relay/tool"
)

func main() {
	registry := tool.NewRegistry().Add(
		tool.Func("echo", "Echo back the input text", echoHandler),
		tool.Func("time", "Get the current time", timeHandler),
		tool.WithHandler("calculate", "Perform basic arithmetic", calculateSchema(), calculateHandler),
	)

	if err := mcp.ServeStdio(registry,
		mcp.WithName("relay-mcp-example"),
		mcp.WithVersion("1.0.0"),
	); err != nil {
		log.Fatal(err)
	}
}

// EchoArgs are the arguments for the echo tool.
type EchoArgs struct {
	Text string `json:"text" desc:"The text to echo back"`
}

func echoHandler(ctx context.Context, args EchoArgs) (string, error) {
	return args.Text, nil
}

// TimeArgs are the arguments for the time tool.
type TimeArgs struct {
	Format string `json:"format,omitempty" desc:"Time format: 'rfc3339', 'unix', or 'human' (default)"`
}

func timeHandler(ctx context.Context, args TimeArgs) (string, error) {
	now := time.Now()

	switch strings.ToLower(args.Format) {
	case "rfc3339":
		return now.Format(time.RFC3339), nil
	case "unix":
		return fmt.Sprintf("%d", now.Unix()), nil
	default:
		return now.Format("Monday, January 2, 2006 at 3:04 PM MST"), nil
	}
}

// calculateSchema declares the calculate arguments with an explicit enum,
// which struct tags cannot express.
func calculateSchema() json.RawMessage {
	return ai.NewSchema().
		Str("operation", "The operation to perform").
		Enum("operation", "add", "subtract", "multiply", "divide").
		Num("a", "First number").
		Num("b", "Second number").
		Required("operation", "a", "b").
		Build()
}

func calculateHandler(ctx context.Context, call ai.ToolCall) (string, error) {
	var args struct {
		Operation string  `json:"operation"`
		A         float64 `json:"a"`
		B         float64 `json:"b"`
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return "", err
	}

	var result float64
	switch args.Operation {
	case "add":
		result = args.A + args.B
	case "subtract":
		result = args.A - args.B
	case "multiply":
		result = args.A * args.B
	case "divide":
		if args.B == 0 {
			return "", fmt.Errorf("cannot divide by zero")
		}
		result = args.A / args.B
	default:
		return "", fmt.Errorf("unknown operation: %s", args.Operation)
	}

	return fmt.Sprintf("%.6g", result), nil
}

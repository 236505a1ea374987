// Command example runs a small agent loop against whichever provider has an
// API key configured, demonstrating the registry, engine, and unified client.
//
// Usage:
//
//	ANTHROPIC_API_KEY=... go run ./cmd/example "what is 23.5 * 14?"
//
// Keys are read from the environment or a .env file. The first configured
// provider wins: Anthropic, then OpenAI, then Google.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	ai "github.com/coleremick/relay"
	"github.com/coleremick/relay/agent"
	"github.com/coleremick/relay/client"
	"github.com/coleremick/relay/model"
	"github.com/coleremick/relay/tool"
)

func main() {
	godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()

	chatModel, keys, err := pickModel()
	if err != nil {
		logger.Fatal().Err(err).Msg("no provider configured")
	}
	logger.Info().Str("model", chatModel.String()).Msg("provider selected")

	c := client.New(client.Config{
		APIKeys: keys,
		Default: chatModel,
	})

	registry := tool.NewRegistry(tool.WithLogger(logger)).Add(
		tool.Func("calculate", "Perform basic arithmetic on two numbers", calculateHandler),
		tool.Func("now", "Get the current date and time", nowHandler),
	)

	question := "What is 23.5 * 14? Use the calculate tool."
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	engine := agent.New(c, registry, agent.WithLogger(logger))
	result, err := engine.Run(context.Background(), "example", []ai.Message{
		ai.NewUserMessage(question),
	},
		agent.WithSystem("You are a concise assistant. Use tools when they help."),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}

	fmt.Println(result.FinalText)
	fmt.Println()
	for _, rec := range result.Trace {
		status := "ok"
		if !rec.OK() {
			status = rec.Err.Error()
		}
		fmt.Printf("tool %-12s %-6s %s\n", rec.ToolName, rec.Duration.Round(time.Millisecond), status)
	}
	fmt.Printf("iterations=%d tokens in=%d out=%d cost=$%.6f\n",
		result.Iterations,
		result.Usage.InputTokens, result.Usage.OutputTokens,
		chatModel.Cost(result.Usage))
}

// pickModel selects a default model for the first provider with a key.
func pickModel() (model.ChatModel, client.APIKeys, error) {
	keys := client.APIKeys{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Google:    os.Getenv("GEMINI_API_KEY"),
	}

	switch {
	case keys.Anthropic != "":
		return model.DefaultClaudeModel, keys, nil
	case keys.OpenAI != "":
		return model.DefaultGPTModel, keys, nil
	case keys.Google != "":
		return model.DefaultGeminiModel, keys, nil
	}
	return model.ChatModel{}, keys, fmt.Errorf("set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY")
}

// CalculateArgs are the arguments for the calculate tool.
type CalculateArgs struct {
	Operation string  `json:"operation" desc:"One of: add, subtract, multiply, divide"`
	A         float64 `json:"a" desc:"First operand"`
	B         float64 `json:"b" desc:"Second operand"`
}

func calculateHandler(ctx context.Context, args CalculateArgs) (string, error) {
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

// NowArgs are the arguments for the now tool.
type NowArgs struct {
	Format string `json:"format,omitempty" desc:"Time format: 'rfc3339', 'unix', or 'human' (default)"`
}

func nowHandler(ctx context.Context, args NowArgs) (string, error) {
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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/garyjia/integration-kit/internal/application/bootstrap"
	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/application/executor"
	"github.com/garyjia/integration-kit/internal/application/registry"
	"github.com/garyjia/integration-kit/internal/infrastructure/external/openai"
	"github.com/garyjia/integration-kit/internal/infrastructure/observability"
	"github.com/garyjia/integration-kit/pkg/utils"
)

func main() {
	// Parse command line flags
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	baseURL := flag.String("base-url", "", "Override the OpenAI API base URL")
	model := flag.String("model", openai.DefaultModel, "Model to call")
	promptsFile := flag.String("prompts", "", "Optional prompts YAML file")
	prompt := flag.String("prompt", "Reply with the single word: pong", "Prompt to send")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{Level: level, Format: utils.LogFormatConsole})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-gpt-connection --key sk-... [--model gpt-4o-mini] [--prompts <path>] [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== OpenAI Connection Test ===")
	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", *model)
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	if len(*apiKey) >= 4 {
		fmt.Printf("  API key prefix: %s...\n", (*apiKey)[:4])
	}
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	prompts := &openai.PromptConfig{Chat: openai.ChatPrompt{Model: *model}}
	if *promptsFile != "" {
		prompts, err = openai.LoadPrompts(*promptsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Prompts loaded")
	}

	client := openai.NewChatClient(*apiKey, *baseURL, logger)
	handler := openai.NewCompletionHandler(client, prompts, logger)

	integrations := registry.NewIntegrationRegistry()
	handlers := registry.NewHandlerRegistry()
	if err := bootstrap.Load(openai.Catalog(handler), integrations, handlers, logger); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	bus := dispatcher.NewDispatcher(dispatcher.WithLogger(logger))
	bus.SubscribeAll(observability.NewRequestIDListener())
	bus.SubscribeAll(observability.NewLoggerListener(logger))
	exec := executor.New(handlers, bus, logger)

	fmt.Println("Sending request to OpenAI API...")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := exec.ExecuteWithResult(ctx, openai.ChatCompletionCommand{Prompt: *prompt})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	if result.IsFailure() {
		fmt.Fprintf(os.Stderr, "✗ API call failed after %.2f ms: %s\n", result.DurationMs(), result.ErrorMessage())
		os.Exit(1)
	}

	fmt.Printf("✓ API call succeeded in %.2f ms\n", result.DurationMs())
	fmt.Printf("Response: %v\n", result.Data())
	fmt.Printf("Request ID: %s\n", result.Metadata().String(observability.MetadataRequestID))
}

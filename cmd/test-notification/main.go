// Command test-notification sends one notification through the executor to
// check Slack or Lark credentials without starting the full service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/integration-kit/internal/application/bootstrap"
	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/application/executor"
	"github.com/garyjia/integration-kit/internal/application/registry"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/garyjia/integration-kit/internal/infrastructure/external/lark"
	"github.com/garyjia/integration-kit/internal/infrastructure/external/slack"
	"github.com/garyjia/integration-kit/internal/infrastructure/observability"
	"github.com/garyjia/integration-kit/pkg/utils"
)

func main() {
	webhookURL := flag.String("slack-webhook", os.Getenv("SLACK_WEBHOOK_URL"), "Slack incoming webhook URL")
	larkAppID := flag.String("lark-app-id", os.Getenv("LARK_APP_ID"), "Lark app ID")
	larkAppSecret := flag.String("lark-app-secret", os.Getenv("LARK_APP_SECRET"), "Lark app secret")
	openID := flag.String("open-id", "", "Lark open_id of the recipient")
	text := flag.String("text", "Integration test notification", "Message text")
	timeout := flag.Duration("timeout", 15*time.Second, "Call timeout")
	flag.Parse()

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "info", Format: utils.LogFormatConsole})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fmt.Println("=== Notification Test ===")

	var (
		catalog  bootstrap.Catalog
		commands []integration.Command
	)

	if *webhookURL != "" {
		if err := utils.ValidateWebhookURL(*webhookURL); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		handler := slack.NewNotifyHandler(&http.Client{Timeout: *timeout}, *webhookURL, logger)
		catalog = catalog.Merge(slack.Catalog(handler))
		commands = append(commands, slack.NotifyCommand{Text: *text})
	}

	if *larkAppID != "" && *larkAppSecret != "" && *openID != "" {
		client := lark.NewSDKClient(lark.Config{AppID: *larkAppID, AppSecret: *larkAppSecret}, logger)
		catalog = catalog.Merge(lark.Catalog(lark.NewMessenger(client, logger)))

		cmd, err := lark.TextMessage(*openID, *text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		commands = append(commands, cmd)
	}

	if len(commands) == 0 {
		fmt.Fprintln(os.Stderr, "ERROR: nothing to send")
		fmt.Fprintln(os.Stderr, "Usage: test-notification --slack-webhook https://hooks.slack.com/... | --lark-app-id ... --lark-app-secret ... --open-id ou_...")
		os.Exit(1)
	}

	exec, err := newExecutor(catalog, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for _, cmd := range commands {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		result, err := exec.ExecuteWithResult(ctx, cmd)
		cancel()

		switch {
		case err != nil:
			fmt.Printf("✗ %s: %v\n", cmd.CommandType(), err)
			failed = true
		case result.IsFailure():
			fmt.Printf("✗ %s: %s (%.2f ms)\n", cmd.CommandType(), result.ErrorMessage(), result.DurationMs())
			failed = true
		default:
			fmt.Printf("✓ %s sent (%.2f ms)", cmd.CommandType(), result.DurationMs())
			if id, ok := result.Data().(string); ok && id != "" {
				fmt.Printf(" message_id=%s", id)
			}
			fmt.Println()
		}
	}

	if failed {
		os.Exit(1)
	}
}

func newExecutor(catalog bootstrap.Catalog, logger *zap.Logger) (*executor.Executor, error) {
	integrations := registry.NewIntegrationRegistry()
	handlers := registry.NewHandlerRegistry()
	if err := bootstrap.Load(catalog, integrations, handlers, logger); err != nil {
		return nil, err
	}

	bus := dispatcher.NewDispatcher(dispatcher.WithLogger(logger))
	bus.SubscribeAll(observability.NewRequestIDListener())
	bus.SubscribeAll(observability.NewLoggerListener(logger))

	return executor.New(handlers, bus, logger), nil
}

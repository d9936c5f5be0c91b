package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/integration-kit/internal/application/bootstrap"
	"github.com/garyjia/integration-kit/internal/application/codec"
	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/infrastructure/external/lark"
	"github.com/garyjia/integration-kit/internal/infrastructure/external/openai"
	"github.com/garyjia/integration-kit/internal/infrastructure/external/slack"
	natsfwd "github.com/garyjia/integration-kit/internal/infrastructure/messaging/nats"
	"github.com/garyjia/integration-kit/internal/infrastructure/observability"
	"github.com/garyjia/integration-kit/internal/infrastructure/persistence/listener"
	"github.com/garyjia/integration-kit/internal/infrastructure/persistence/migrations"
	"github.com/garyjia/integration-kit/internal/infrastructure/persistence/repository"
	"github.com/garyjia/integration-kit/internal/worker"
	"github.com/garyjia/integration-kit/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB    *database.DB
	Calls *repository.CallRepository
}

// QueueBundle holds the queue and, for the redis driver, its client.
type QueueBundle struct {
	Queue  worker.Queue
	Client *redis.Client
}

// ProvideDatabase opens the database, runs the embedded migrations and
// creates the call repository.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:    db,
		Calls: repository.NewCallRepository(db, logger),
	}, nil
}

// ProvideCatalog builds the integrations enabled in cfg and registers their
// command decoders in codecs.
func ProvideCatalog(cfg *Config, codecs *codec.Registry, logger *zap.Logger) (bootstrap.Catalog, error) {
	var catalog bootstrap.Catalog

	if cfg.Slack.Enabled {
		handler := slack.NewNotifyHandler(&http.Client{Timeout: cfg.Slack.Timeout}, cfg.Slack.WebhookURL, logger)
		catalog = catalog.Merge(slack.Catalog(handler))
		codec.Register[slack.NotifyCommand](codecs, slack.NotifyCommandType)
	}

	if cfg.Lark.Enabled {
		client := lark.NewSDKClient(lark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
		catalog = catalog.Merge(lark.Catalog(lark.NewMessenger(client, logger)))
		codec.Register[lark.SendMessageCommand](codecs, lark.SendMessageCommandType)
	}

	if cfg.OpenAI.Enabled {
		prompts := &openai.PromptConfig{Chat: openai.ChatPrompt{
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		}}
		if cfg.OpenAI.PromptsPath != "" {
			loaded, err := openai.LoadPrompts(cfg.OpenAI.PromptsPath)
			if err != nil {
				return bootstrap.Catalog{}, err
			}
			prompts = loaded
		}
		client := openai.NewChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, logger)
		catalog = catalog.Merge(openai.Catalog(openai.NewCompletionHandler(client, prompts, logger)))
		codec.Register[openai.ChatCompletionCommand](codecs, openai.ChatCompletionCommandType)
	}

	return catalog, nil
}

// ProvideListeners subscribes the event listeners in dispatch order:
// envelope metadata first, then the request id, then the log, the call
// log and the optional NATS forwarder.
func ProvideListeners(bus dispatcher.Dispatcher, calls *repository.CallRepository, conn *nats.Conn, cfg *NATSConfig, logger *zap.Logger) {
	bus.SubscribeAll(worker.NewMetadataPropagator())
	bus.SubscribeAll(observability.NewRequestIDListener())
	bus.SubscribeAll(observability.NewLoggerListener(logger))

	if calls != nil {
		bus.SubscribeAll(listener.NewCallRecorder(calls, logger))
	}

	if conn != nil {
		bus.SubscribeAll(natsfwd.NewEventForwarder(conn, cfg.SubjectPrefix, logger))
	}
}

// ProvideNATS connects to NATS when forwarding is enabled
func ProvideNATS(cfg *NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return natsfwd.Connect(cfg.URL, cfg.Name, logger)
}

// ProvideQueue creates the envelope queue for the configured driver
func ProvideQueue(ctx context.Context, cfg *QueueConfig, logger *zap.Logger) (*QueueBundle, error) {
	switch cfg.Driver {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("Redis queue connected", zap.String("key", cfg.RedisKey))
		return &QueueBundle{
			Queue:  worker.NewRedisQueue(client, cfg.RedisKey, cfg.BlockTimeout),
			Client: client,
		}, nil
	default:
		return &QueueBundle{Queue: worker.NewMemoryQueue(cfg.BufferSize)}, nil
	}
}

// ProvideConsumer creates the queue consumer executing envelopes
func ProvideConsumer(cfg *QueueConfig, queue worker.Queue, handler *worker.MessageHandler, logger *zap.Logger) *worker.Consumer {
	consumerCfg := worker.DefaultConsumerConfig()
	consumerCfg.Concurrency = cfg.Workers
	if cfg.MaxAttempts > 0 {
		consumerCfg.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.ErrorBackoff > 0 {
		consumerCfg.ErrorBackoff = cfg.ErrorBackoff
	}
	return worker.NewConsumer("command-consumer", consumerCfg, queue, handler, logger)
}

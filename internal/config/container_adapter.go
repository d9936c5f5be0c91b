package config

import (
	"github.com/garyjia/integration-kit/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig(version string) *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Slack: container.SlackConfig{
			Enabled:    c.Slack.Enabled,
			WebhookURL: c.Slack.WebhookURL,
			Timeout:    c.Slack.Timeout,
		},
		Lark: container.LarkConfig{
			Enabled:   c.Lark.Enabled,
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
		},
		OpenAI: container.OpenAIConfig{
			Enabled:     c.OpenAI.Enabled,
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			Temperature: c.OpenAI.Temperature,
			MaxTokens:   c.OpenAI.MaxTokens,
			Timeout:     c.OpenAI.Timeout,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Queue: container.QueueConfig{
			Driver:       c.Queue.Driver,
			BufferSize:   c.Queue.BufferSize,
			Workers:      c.Queue.Workers,
			MaxAttempts:  c.Queue.MaxAttempts,
			ErrorBackoff: c.Queue.ErrorBackoff,
			RedisURL:     c.Queue.RedisURL,
			RedisKey:     c.Queue.RedisKey,
			BlockTimeout: c.Queue.BlockTimeout,
		},
		NATS: container.NATSConfig{
			Enabled:       c.NATS.Enabled,
			URL:           c.NATS.URL,
			Name:          c.NATS.Name,
			SubjectPrefix: c.NATS.SubjectPrefix,
		},
		Export: container.ExportConfig{
			SheetName: c.Export.SheetName,
		},
		Version: version,
	}
}

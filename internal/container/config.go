// Package container provides dependency injection and lifecycle management
// for the integration service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Slack    SlackConfig
	Lark     LarkConfig
	OpenAI   OpenAIConfig
	Queue    QueueConfig
	NATS     NATSConfig
	Export   ExportConfig

	// Version is reported by the health endpoint
	Version string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SlackConfig holds Slack webhook settings.
type SlackConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Enabled bool
	APIKey  string

	// BaseURL overrides the public API endpoint
	BaseURL string

	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration

	// PromptsPath is an optional YAML file of prompt defaults
	PromptsPath string
}

// QueueConfig holds asynchronous dispatch settings.
type QueueConfig struct {
	// Driver is "memory" or "redis"
	Driver string

	BufferSize   int
	Workers      int
	MaxAttempts  int
	ErrorBackoff time.Duration

	RedisURL     string
	RedisKey     string
	BlockTimeout time.Duration
}

// NATSConfig holds event forwarding settings.
type NATSConfig struct {
	Enabled       bool
	URL           string
	Name          string
	SubjectPrefix string
}

// ExportConfig holds call-log export settings.
type ExportConfig struct {
	SheetName string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/integrations.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Slack: SlackConfig{
			Timeout: 10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   1000,
			Timeout:     60 * time.Second,
		},
		Queue: QueueConfig{
			Driver:       "memory",
			BufferSize:   100,
			Workers:      2,
			MaxAttempts:  3,
			ErrorBackoff: time.Second,
			RedisKey:     "integration-kit:commands",
			BlockTimeout: 2 * time.Second,
		},
		NATS: NATSConfig{
			Name:          "integration-kit",
			SubjectPrefix: "integrations",
		},
		Export: ExportConfig{
			SheetName: "Calls",
		},
		Version: "dev",
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return fmt.Errorf("slack.webhook_url is required")
	}
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required")
	}
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}

	switch c.Queue.Driver {
	case "memory":
	case "redis":
		if c.Queue.RedisURL == "" {
			return fmt.Errorf("queue.redis_url is required")
		}
	default:
		return fmt.Errorf("unknown queue driver %q", c.Queue.Driver)
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}

	return nil
}

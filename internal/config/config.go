// Package config loads the service configuration from YAML, an optional
// .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/integration-kit/pkg/utils"
)

const (
	// QueueDriverMemory keeps envelopes in process
	QueueDriverMemory = "memory"

	// QueueDriverRedis keeps envelopes in a Redis list
	QueueDriverRedis = "redis"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Lark     LarkConfig     `mapstructure:"lark"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Queue    QueueConfig    `mapstructure:"queue"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// SlackConfig holds Slack webhook configuration
type SlackConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// QueueConfig holds asynchronous dispatch configuration
type QueueConfig struct {
	Driver       string        `mapstructure:"driver"`
	BufferSize   int           `mapstructure:"buffer_size"`
	Workers      int           `mapstructure:"workers"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	ErrorBackoff time.Duration `mapstructure:"error_backoff"`
	RedisURL     string        `mapstructure:"redis_url"`
	RedisKey     string        `mapstructure:"redis_key"`
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
}

// NATSConfig holds event forwarding configuration
type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	Name          string `mapstructure:"name"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// ExportConfig holds call-log export configuration
type ExportConfig struct {
	SheetName string `mapstructure:"sheet_name"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and the environment only.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables of path without overriding the environment
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/integrations.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Integration defaults
	v.SetDefault("slack.enabled", false)
	v.SetDefault("slack.timeout", 10*time.Second)
	v.SetDefault("lark.enabled", false)
	v.SetDefault("openai.enabled", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.timeout", 60*time.Second)

	// Queue defaults
	v.SetDefault("queue.driver", QueueDriverMemory)
	v.SetDefault("queue.buffer_size", 100)
	v.SetDefault("queue.workers", 2)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.error_backoff", time.Second)
	v.SetDefault("queue.redis_key", "integration-kit:commands")
	v.SetDefault("queue.block_timeout", 2*time.Second)

	// NATS defaults
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.name", "integration-kit")
	v.SetDefault("nats.subject_prefix", "integrations")

	// Export defaults
	v.SetDefault("export.sheet_name", "Calls")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string]string{
		"slack.webhook_url": "SLACK_WEBHOOK_URL",
		"lark.app_id":       "LARK_APP_ID",
		"lark.app_secret":   "LARK_APP_SECRET",
		"openai.api_key":    "OPENAI_API_KEY",
		"queue.redis_url":   "REDIS_URL",
		"nats.url":          "NATS_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if _, err := utils.ParseLogLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger.level: %w", err)
	}
	if c.Logger.Format != utils.LogFormatJSON && c.Logger.Format != utils.LogFormatConsole {
		return fmt.Errorf("logger.format must be %q or %q", utils.LogFormatJSON, utils.LogFormatConsole)
	}

	// Credentials are required only for enabled integrations
	if c.Slack.Enabled {
		if err := utils.ValidateWebhookURL(c.Slack.WebhookURL); err != nil {
			return fmt.Errorf("slack.webhook_url: %w", err)
		}
	}
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
	}
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}

	switch c.Queue.Driver {
	case QueueDriverMemory:
		if c.Queue.BufferSize <= 0 {
			return fmt.Errorf("queue.buffer_size must be positive")
		}
	case QueueDriverRedis:
		if c.Queue.RedisURL == "" {
			return fmt.Errorf("queue.redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("queue.driver must be %q or %q", QueueDriverMemory, QueueDriverRedis)
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}

	return nil
}

package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/garyjia/integration-kit/internal/application/bootstrap"
	"github.com/garyjia/integration-kit/internal/application/codec"
	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/application/executor"
	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/application/registry"
	"github.com/garyjia/integration-kit/internal/infrastructure/export"
	httpapi "github.com/garyjia/integration-kit/internal/interfaces/http"
	"github.com/garyjia/integration-kit/internal/worker"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	database *DatabaseBundle
	natsConn *nats.Conn
	queue    *QueueBundle

	// Application
	bus          dispatcher.Dispatcher
	integrations *registry.IntegrationRegistry
	handlers     *registry.HandlerRegistry
	codecs       *codec.Registry
	executor     *executor.Executor
	producer     *worker.Producer

	// Workers and interfaces
	workers *worker.Manager
	server  *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Database and call repository
// 2. Event bus, NATS connection and listeners
// 3. Registries, codecs and the bootstrap catalog
// 4. Executor
// 5. Queue, producer and workers
// 6. HTTP server
//
// On failure everything already initialized is torn down again.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	steps := []struct {
		name string
		init func() error
	}{
		{"database", c.initDatabase},
		{"event bus", c.initEventBus},
		{"registries", c.initRegistries},
		{"executor", c.initExecutor},
		{"workers", c.initWorkers},
		{"http server", c.initServer},
	}

	for _, step := range steps {
		if err := step.init(); err != nil {
			c.logger.Error("Container initialization failed", zap.String("step", step.name), zap.Error(err))
			_ = c.shutdown()
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Component initialized", zap.String("component", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Run serves HTTP until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	if !c.ready.Load() {
		return fmt.Errorf("container not started")
	}
	return c.server.Start(ctx)
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	err := c.shutdown()

	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// shutdown releases every initialized component, last initialized first
func (c *Container) shutdown() error {
	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers and the queue (reverse of step 5)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
		c.workers = nil
	}
	if c.queue != nil {
		if err := c.queue.Queue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close queue: %w", err))
		}
		if c.queue.Client != nil {
			if err := c.queue.Client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}
		c.queue = nil
	}

	// Step 2: Close the event bus, then NATS (reverse of step 2)
	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
		c.bus = nil
	}
	if c.natsConn != nil {
		c.natsConn.Close()
		c.natsConn = nil
	}

	// Step 3: Close database (reverse of step 1)
	if c.database != nil {
		if err := c.database.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		c.database = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, healthy bool, message string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: message}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.database == nil:
		set("database", false, "not initialized")
	default:
		if err := c.database.DB.PingContext(context.Background()); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	if c.workers != nil {
		set("workers", c.workers.IsRunning(), fmt.Sprintf("worker count: %d", c.workers.Count()))
	} else {
		set("workers", false, "not initialized")
	}

	if c.bus != nil {
		set("dispatcher", true, "")
	} else {
		set("dispatcher", false, "not initialized")
	}

	if c.config.NATS.Enabled {
		if c.natsConn != nil && c.natsConn.IsConnected() {
			set("nats", true, "")
		} else {
			set("nats", false, "not connected")
		}
	}

	return status
}

// HealthReport implements the HTTP health reporter
func (c *Container) HealthReport() (bool, any) {
	status := c.Health()
	return status.Overall, status.Components
}

// initDatabase opens the database and the call repository.
func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.database = bundle
	return nil
}

// initEventBus creates the dispatcher and subscribes the listeners.
func (c *Container) initEventBus() error {
	conn, err := ProvideNATS(&c.config.NATS, c.logger)
	if err != nil {
		return err
	}
	c.natsConn = conn

	c.bus = dispatcher.NewDispatcher(dispatcher.WithLogger(c.logger))
	ProvideListeners(c.bus, c.database.Calls, c.natsConn, &c.config.NATS, c.logger)
	return nil
}

// initRegistries populates the registries from the enabled integrations.
func (c *Container) initRegistries() error {
	c.integrations = registry.NewIntegrationRegistry()
	c.handlers = registry.NewHandlerRegistry()
	c.codecs = codec.NewRegistry()

	catalog, err := ProvideCatalog(c.config, c.codecs, c.logger)
	if err != nil {
		return err
	}

	return bootstrap.Load(catalog, c.integrations, c.handlers, c.logger)
}

// initExecutor wires the executor to the registry and the bus.
func (c *Container) initExecutor() error {
	c.executor = executor.New(c.handlers, c.bus, c.logger)
	return nil
}

// initWorkers creates the queue and starts the consumer.
func (c *Container) initWorkers() error {
	bundle, err := ProvideQueue(c.ctx, &c.config.Queue, c.logger)
	if err != nil {
		return err
	}
	c.queue = bundle

	c.producer = worker.NewProducer(c.codecs, bundle.Queue, c.logger)
	handler := worker.NewMessageHandler(c.codecs, c.executor, c.logger)

	c.workers = worker.NewManager(c.logger)
	c.workers.Register(ProvideConsumer(&c.config.Queue, bundle.Queue, handler, c.logger))

	return c.workers.StartAll(c.ctx)
}

// initServer builds the HTTP server; Run starts it.
func (c *Container) initServer() error {
	c.server = httpapi.NewServer(httpapi.ServerConfig{
		Host:         c.config.Server.Host,
		Port:         c.config.Server.Port,
		ReadTimeout:  c.config.Server.ReadTimeout,
		WriteTimeout: c.config.Server.WriteTimeout,
	}, httpapi.Dependencies{
		Integrations: c.integrations,
		Codec:        c.codecs,
		Executor:     c.executor,
		Enqueuer:     c.producer,
		Calls:        c.database.Calls,
		Exporter:     export.NewXLSXExporter(c.config.Export.SheetName, c.logger),
		Health:       c,
		Version:      c.config.Version,
	}, &zapLoggerAdapter{logger: c.logger})
	return nil
}

// Executor returns the command executor
func (c *Container) Executor() *executor.Executor {
	return c.executor
}

// Producer returns the asynchronous command producer
func (c *Container) Producer() *worker.Producer {
	return c.producer
}

// Integrations returns the integration registry
func (c *Container) Integrations() *registry.IntegrationRegistry {
	return c.integrations
}

// Handlers returns the handler registry
func (c *Container) Handlers() *registry.HandlerRegistry {
	return c.handlers
}

// Dispatcher returns the event bus
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.bus
}

// Calls returns the call log repository
func (c *Container) Calls() port.CallRepository {
	if c.database == nil {
		return nil
	}
	return c.database.Calls
}

// Server returns the HTTP server
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container configuration
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the http.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

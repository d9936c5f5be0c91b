package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Processor handles one envelope
type Processor interface {
	Handle(ctx context.Context, env *Envelope) error
}

// ConsumerConfig holds configuration for a consumer
type ConsumerConfig struct {
	Concurrency  int
	MaxAttempts  int
	ErrorBackoff time.Duration
}

// DefaultConsumerConfig returns default configuration
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Concurrency:  2,
		MaxAttempts:  3,
		ErrorBackoff: time.Second,
	}
}

// ConsumerStats is a point-in-time view of a consumer's counters
type ConsumerStats struct {
	Processed int
	Failed    int
	Retried   int
	Dropped   int
	LastError string
}

// Consumer drains a queue with a fixed number of goroutines.
// Envelopes whose processing returns an error are re-enqueued until
// MaxAttempts is reached, then dropped.
type Consumer struct {
	name      string
	config    ConsumerConfig
	queue     Queue
	processor Processor
	logger    *zap.Logger

	mu        sync.RWMutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	stats     ConsumerStats
}

// NewConsumer creates a consumer
func NewConsumer(name string, config ConsumerConfig, queue Queue, processor Processor, logger *zap.Logger) *Consumer {
	defaults := DefaultConsumerConfig()
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Consumer{
		name:      name,
		config:    config,
		queue:     queue,
		processor: processor,
		logger:    logger,
	}
}

// Name returns the consumer name for identification
func (c *Consumer) Name() string {
	return c.name
}

// Start launches the consumer goroutines
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return fmt.Errorf("consumer %s already running", c.name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.isRunning = true

	for i := 0; i < c.config.Concurrency; i++ {
		c.wg.Add(1)
		go c.loop(runCtx, i)
	}

	c.logger.Info("Consumer started",
		zap.String("consumer", c.name),
		zap.Int("concurrency", c.config.Concurrency),
		zap.Int("max_attempts", c.config.MaxAttempts))

	return nil
}

// Stop cancels the goroutines and waits for in-flight envelopes
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()

	stats := c.Stats()
	c.logger.Info("Consumer stopped",
		zap.String("consumer", c.name),
		zap.Int("processed_count", stats.Processed),
		zap.Int("failed_count", stats.Failed))

	return nil
}

// IsRunning returns whether the consumer is running
func (c *Consumer) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

// Stats returns the consumer counters
func (c *Consumer) Stats() ConsumerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Consumer) loop(ctx context.Context, slot int) {
	defer c.wg.Done()

	for {
		env, err := c.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				c.logger.Debug("Consumer loop exiting",
					zap.String("consumer", c.name),
					zap.Int("slot", slot))
				return
			}

			c.logger.Error("Failed to dequeue envelope",
				zap.String("consumer", c.name),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(c.config.ErrorBackoff):
			}
			continue
		}

		c.process(ctx, env)
	}
}

func (c *Consumer) process(ctx context.Context, env *Envelope) {
	err := c.processor.Handle(ctx, env)
	if err == nil {
		c.mu.Lock()
		c.stats.Processed++
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.stats.Failed++
	c.stats.LastError = err.Error()
	c.mu.Unlock()

	if env.Attempts+1 >= c.config.MaxAttempts {
		c.logger.Error("Envelope dropped after max attempts",
			zap.String("consumer", c.name),
			zap.String("envelope_id", env.ID),
			zap.String("command_type", env.CommandType.String()),
			zap.Int("attempts", env.Attempts+1),
			zap.Error(err))

		c.mu.Lock()
		c.stats.Dropped++
		c.mu.Unlock()
		return
	}

	retry := env.Retry()
	if qerr := c.queue.Enqueue(context.WithoutCancel(ctx), retry); qerr != nil {
		c.logger.Error("Failed to re-enqueue envelope",
			zap.String("consumer", c.name),
			zap.String("envelope_id", env.ID),
			zap.Error(qerr))

		c.mu.Lock()
		c.stats.Dropped++
		c.mu.Unlock()
		return
	}

	c.logger.Warn("Envelope re-enqueued",
		zap.String("consumer", c.name),
		zap.String("envelope_id", env.ID),
		zap.Int("attempt", retry.Attempts),
		zap.Error(err))

	c.mu.Lock()
	c.stats.Retried++
	c.mu.Unlock()
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisQueueKey = "integration-kit:commands"
	defaultBlockTimeout  = 5 * time.Second
)

// RedisQueue stores envelopes as JSON in a Redis list (LPUSH / BRPOP)
type RedisQueue struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
	closed       atomic.Bool
}

// NewRedisQueue creates a queue on the given list key.
// The client is owned by the caller and is not closed by Close.
func NewRedisQueue(client *redis.Client, key string, blockTimeout time.Duration) *RedisQueue {
	if key == "" {
		key = defaultRedisQueueKey
	}
	if blockTimeout <= 0 {
		blockTimeout = defaultBlockTimeout
	}
	return &RedisQueue{
		client:       client,
		key:          key,
		blockTimeout: blockTimeout,
	}
}

// Enqueue pushes env onto the list
func (q *RedisQueue) Enqueue(ctx context.Context, env *Envelope) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push envelope %s: %w", env.ID, err)
	}
	return nil
}

// Dequeue pops the oldest envelope, polling in blockTimeout slices so that
// Close and ctx cancellation are observed.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Envelope, error) {
	for {
		if q.closed.Load() {
			return nil, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := q.client.BRPop(ctx, q.blockTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to pop envelope: %w", err)
		}

		// BRPOP replies with [key, value]
		if len(res) != 2 {
			return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
		}

		return decodeEnvelope([]byte(res[1]))
	}
}

// Len returns the list length
func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return int(n), nil
}

// Close stops accepting envelopes; consumers return on their next poll
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return &env, nil
}

package worker

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when a bounded queue cannot accept more envelopes
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueClosed is returned once the queue has been closed
	ErrQueueClosed = errors.New("queue is closed")
)

// Queue transports envelopes from producers to consumers
type Queue interface {
	// Enqueue stores env for later processing
	Enqueue(ctx context.Context, env *Envelope) error

	// Dequeue blocks until an envelope is available, ctx is done or the queue is closed
	Dequeue(ctx context.Context) (*Envelope, error)

	// Len returns the number of pending envelopes
	Len(ctx context.Context) (int, error)

	// Close stops accepting envelopes and releases blocked consumers
	Close() error
}

// MemoryQueue is an in-process bounded queue backed by a channel
type MemoryQueue struct {
	items     chan *Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryQueue creates a queue holding at most size envelopes
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	return &MemoryQueue{
		items: make(chan *Envelope, size),
		done:  make(chan struct{}),
	}
}

// Enqueue adds env without blocking; ErrQueueFull when the buffer is exhausted
func (q *MemoryQueue) Enqueue(ctx context.Context, env *Envelope) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.items <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue waits for the next envelope.
// Envelopes still buffered when the queue closes are drained first.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Envelope, error) {
	select {
	case env := <-q.items:
		return env, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		select {
		case env := <-q.items:
			return env, nil
		default:
			return nil, ErrQueueClosed
		}
	}
}

// Len returns the number of buffered envelopes
func (q *MemoryQueue) Len(ctx context.Context) (int, error) {
	return len(q.items), nil
}

// Close releases blocked consumers; it is safe to call more than once
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}

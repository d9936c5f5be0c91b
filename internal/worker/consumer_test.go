package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProcessor struct {
	mu       sync.Mutex
	handled  []*Envelope
	handleFn func(ctx context.Context, env *Envelope) error
}

func (m *mockProcessor) Handle(ctx context.Context, env *Envelope) error {
	m.mu.Lock()
	m.handled = append(m.handled, env)
	m.mu.Unlock()

	if m.handleFn != nil {
		return m.handleFn(ctx, env)
	}
	return nil
}

func (m *mockProcessor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handled)
}

func TestConsumer_ProcessesEnvelopes(t *testing.T) {
	q := NewMemoryQueue(10)
	proc := &mockProcessor{}
	c := NewConsumer("test", ConsumerConfig{Concurrency: 2}, q, proc, nil)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, newTestEnvelope("x")))
	}

	require.NoError(t, c.Start(ctx))
	assert.True(t, c.IsRunning())
	assert.Error(t, c.Start(ctx))

	require.Eventually(t, func() bool { return c.Stats().Processed == 5 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Stop())
	assert.False(t, c.IsRunning())
	assert.Equal(t, 5, proc.count())
}

func TestConsumer_RetriesThenDrops(t *testing.T) {
	q := NewMemoryQueue(10)
	proc := &mockProcessor{
		handleFn: func(ctx context.Context, env *Envelope) error {
			return errors.New("transient")
		},
	}
	c := NewConsumer("test", ConsumerConfig{Concurrency: 1, MaxAttempts: 3}, q, proc, nil)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, newTestEnvelope("x")))
	require.NoError(t, c.Start(ctx))
	defer c.Stop()

	require.Eventually(t, func() bool { return c.Stats().Dropped == 1 }, time.Second, 5*time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, 2, stats.Retried)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, "transient", stats.LastError)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	require.Len(t, proc.handled, 3)
	for i, env := range proc.handled {
		assert.Equal(t, i, env.Attempts)
		assert.Equal(t, proc.handled[0].ID, env.ID)
	}
}

func TestConsumer_StopsWhenQueueCloses(t *testing.T) {
	q := NewMemoryQueue(1)
	c := NewConsumer("test", ConsumerConfig{Concurrency: 3}, q, &mockProcessor{}, nil)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, q.Close())

	done := make(chan struct{})
	go func() {
		_ = c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

type mockWorker struct {
	name     string
	startErr error
	log      *[]string
}

func (w *mockWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	*w.log = append(*w.log, "start:"+w.name)
	return nil
}

func (w *mockWorker) Stop() error {
	*w.log = append(*w.log, "stop:"+w.name)
	return nil
}

func (w *mockWorker) Name() string { return w.name }

func TestManager_StartStopOrder(t *testing.T) {
	var log []string
	m := NewManager(nil)
	m.Register(&mockWorker{name: "a", log: &log})
	m.Register(&mockWorker{name: "b", log: &log})
	assert.Equal(t, 2, m.Count())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()))

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, log)

	require.NoError(t, m.StopAll())
}

func TestManager_StartFailureRollsBack(t *testing.T) {
	var log []string
	m := NewManager(nil)
	m.Register(&mockWorker{name: "a", log: &log})
	m.Register(&mockWorker{name: "b", log: &log, startErr: errors.New("boom")})
	m.Register(&mockWorker{name: "c", log: &log})

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.False(t, m.IsRunning())
	assert.Equal(t, []string{"start:a", "stop:a"}, log)
}

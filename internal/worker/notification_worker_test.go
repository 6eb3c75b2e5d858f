package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

type sink struct {
	mu     sync.Mutex
	topics []string
	block  chan struct{}
}

func (s *sink) Publish(_ context.Context, topic string, _ domain.RealtimeEvent) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	return nil
}

func TestBroadcastWorkerPreservesOrder(t *testing.T) {
	s := &sink{}
	w := NewBroadcastWorker(s, 8, zap.NewNop())
	w.Start()

	for _, topic := range []string{"/topic/a", "/topic/b", "/topic/c"} {
		require.NoError(t, w.Publish(context.Background(), topic, domain.RealtimeEvent{}))
	}
	w.Stop()

	assert.Equal(t, []string{"/topic/a", "/topic/b", "/topic/c"}, s.topics)
	assert.ErrorIs(t, w.Publish(context.Background(), "/topic/d", domain.RealtimeEvent{}), ErrStopped)
	w.Stop()
}

func TestBroadcastWorkerRejectsWhenFull(t *testing.T) {
	s := &sink{block: make(chan struct{})}
	w := NewBroadcastWorker(s, 1, zap.NewNop())

	require.NoError(t, w.Publish(context.Background(), "/topic/a", domain.RealtimeEvent{}))
	assert.ErrorIs(t, w.Publish(context.Background(), "/topic/b", domain.RealtimeEvent{}), ErrQueueFull)

	w.Start()
	close(s.block)
	w.Stop()
	assert.Equal(t, []string{"/topic/a"}, s.topics)
}

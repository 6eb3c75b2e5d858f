package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/service"
)

// ErrQueueFull is returned when the broadcast backlog is at capacity.
var ErrQueueFull = errors.New("broadcast queue full")

// ErrStopped is returned after Stop.
var ErrStopped = errors.New("broadcast worker stopped")

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

type job struct {
	topic string
	ev    domain.RealtimeEvent
}

// BroadcastWorker decouples realtime fan-out from the request that caused it.
// Events are delivered in enqueue order by a single goroutine.
type BroadcastWorker struct {
	sink   service.Publisher
	logger *zap.Logger
	queue  chan job

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewBroadcastWorker buffers up to size events for sink.
func NewBroadcastWorker(sink service.Publisher, size int, logger *zap.Logger) *BroadcastWorker {
	if size <= 0 {
		size = 256
	}
	return &BroadcastWorker{
		sink:   sink,
		logger: logger,
		queue:  make(chan job, size),
		done:   make(chan struct{}),
	}
}

// Start runs the delivery loop until Stop.
func (w *BroadcastWorker) Start() {
	go func() {
		defer close(w.done)
		for j := range w.queue {
			if err := w.sink.Publish(context.Background(), j.topic, j.ev); err != nil {
				w.logger.Warn("broadcast failed", zap.String("topic", j.topic), zap.Error(err))
			}
		}
	}()
}

// Publish enqueues without blocking.
func (w *BroadcastWorker) Publish(_ context.Context, topic string, ev domain.RealtimeEvent) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- job{topic: topic, ev: ev}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains the backlog and waits for the loop to exit. The loop must have
// been started.
func (w *BroadcastWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()
	<-w.done
}

package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/service"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("notification queue full")

// ErrStopped is returned by Enqueue after Stop.
var ErrStopped = errors.New("notification worker stopped")

// Deliverer sends a single event to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, event events.Event) error
}

// NotificationWorker delivers events off the request path.
type NotificationWorker struct {
	deliverer Deliverer
	logger    *zap.Logger
	queue     chan events.Event
	wg        sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewNotificationWorker creates a worker with a queue of the given size.
func NewNotificationWorker(deliverer Deliverer, logger *zap.Logger, size int) *NotificationWorker {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		deliverer: deliverer,
		logger:    logger,
		queue:     make(chan events.Event, size),
	}
}

// StartNotificationWorker registers notification handlers and starts
// delivery goroutines that run until ctx is cancelled or Stop is called.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, logger *zap.Logger, size, workers int) *NotificationWorker {
	if notificationService == nil {
		return nil
	}
	w := NewNotificationWorker(notificationService, logger, size)
	notificationService.RegisterHandlers(w.Enqueue)
	w.Start(ctx, workers)
	return w
}

// Start launches n delivery goroutines.
func (w *NotificationWorker) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
}

// Enqueue schedules event for delivery without blocking.
func (w *NotificationWorker) Enqueue(event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("dropping notification", zap.String("event_id", event.ID), zap.String("event", string(event.Type)))
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued events to drain.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.queue:
			if !ok {
				return
			}
			if err := w.deliverer.Deliver(ctx, event); err != nil {
				w.logger.Warn("notification delivery failed",
					zap.String("event_id", event.ID),
					zap.String("event", string(event.Type)),
					zap.Error(err))
			}
		}
	}
}

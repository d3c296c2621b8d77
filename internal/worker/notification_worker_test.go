package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-swap/skillswap/internal/events"
)

type recordingDeliverer struct {
	mu   sync.Mutex
	seen []string
	fail bool
}

func (r *recordingDeliverer) Deliver(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, event.ID)
	if r.fail {
		return errors.New("unreachable")
	}
	return nil
}

func TestWorkerDrainsQueueOnStop(t *testing.T) {
	d := &recordingDeliverer{}
	w := NewNotificationWorker(d, nil, 8)
	w.Start(context.Background(), 2)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Enqueue(events.New(events.EventMessageSent, "a", "b", nil)))
	}
	w.Stop()

	assert.Len(t, d.seen, 5)
	assert.ErrorIs(t, w.Enqueue(events.New(events.EventMessageSent, "a", "b", nil)), ErrStopped)
}

func TestWorkerRejectsWhenFull(t *testing.T) {
	w := NewNotificationWorker(&recordingDeliverer{}, nil, 1)

	require.NoError(t, w.Enqueue(events.New(events.EventUserBanned, "a", "b", nil)))
	assert.ErrorIs(t, w.Enqueue(events.New(events.EventUserBanned, "a", "b", nil)), ErrQueueFull)
}

func TestWorkerKeepsGoingAfterFailure(t *testing.T) {
	d := &recordingDeliverer{fail: true}
	w := NewNotificationWorker(d, nil, 4)
	w.Start(context.Background(), 1)

	require.NoError(t, w.Enqueue(events.New(events.EventSwapRequestCreated, "a", "r1", nil)))
	require.NoError(t, w.Enqueue(events.New(events.EventSwapRequestCreated, "a", "r2", nil)))
	w.Stop()

	assert.Len(t, d.seen, 2)
}
